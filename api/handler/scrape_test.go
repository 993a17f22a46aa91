package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/use-agent/forage/cache"
	"github.com/use-agent/forage/config"
	"github.com/use-agent/forage/metrics"
	"github.com/use-agent/forage/models"
	"github.com/use-agent/forage/scraper"
	"github.com/use-agent/forage/search"
	"github.com/use-agent/forage/ssrf"
)

func newTestRouter(t *testing.T, searxngURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.ScraperConfig{
		MaxConcurrency: 2,
		MaxTimeout:     5 * time.Second,
		DefaultTimeout: 2 * time.Second,
	}
	sc := scraper.New(cfg, ssrf.New(), nil, cache.New(8, time.Minute))

	r := gin.New()
	r.POST("/scrape", Scrape(sc))
	r.POST("/search", Search(sc, search.NewClient(searxngURL, time.Second)))
	r.GET("/health", Health(sc, "test"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScrape_BlockedURLs(t *testing.T) {
	r := newTestRouter(t, "")

	tests := []struct {
		name     string
		url      string
		wantKind string
	}{
		{"localhost", "http://localhost:8080/admin", "blocked_localhost"},
		{"private ip", "http://192.168.1.1/router", "blocked_private_ip"},
		{"loopback ip", "http://127.0.0.1/", "blocked_private_ip"},
		{"file scheme", "file:///etc/passwd", "unsupported_protocol"},
		{"internal hostname", "http://db.internal/", "blocked_private_hostname"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/scrape", `{"url":"`+tt.url+`"}`)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422; body %s", w.Code, w.Body.String())
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error != tt.wantKind {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantKind)
			}
		})
	}
}

func TestScrape_MissingURL(t *testing.T) {
	r := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodPost, "/scrape", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	r := newTestRouter(t, "http://unused.invalid")

	w := doJSON(t, r, http.MethodPost, "/search", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSearch_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newTestRouter(t, srv.URL)
	w := doJSON(t, r, http.MethodPost, "/search", `{"query":"golang"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502; body %s", w.Code, w.Body.String())
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != models.KindUpstreamSearchError {
		t.Errorf("error = %q, want %q", resp.Error, models.KindUpstreamSearchError)
	}
}

func TestSearch_ReturnsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"url":"https://go.dev/blog","title":"The Go Blog","content":"news","score":2}]}`))
	}))
	defer srv.Close()

	r := newTestRouter(t, srv.URL)
	w := doJSON(t, r, http.MethodPost, "/search", `{"query":"golang","limit":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
	}

	var resp models.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Data == nil || len(resp.Data.Web) != 1 {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}
	got := resp.Data.Web[0]
	if got.URL != "https://go.dev/blog" || got.Position != 1 || got.Markdown != "" {
		t.Errorf("result = %+v", got)
	}
}

func TestSearch_CountsOutcomes(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"url":"https://go.dev","title":"Go","content":"x","score":1}]}`))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	successBefore := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("error"))

	doJSON(t, newTestRouter(t, good.URL), http.MethodPost, "/search", `{"query":"golang"}`)
	doJSON(t, newTestRouter(t, bad.URL), http.MethodPost, "/search", `{"query":"golang"}`)

	if got := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("success")) - successBefore; got != 1 {
		t.Errorf("success counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("error")) - errorBefore; got != 1 {
		t.Errorf("error counter delta = %v, want 1", got)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, "")

	w := doJSON(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" || resp.Browser {
		t.Errorf("health = %+v (no browser should be live before first scrape)", resp)
	}
}
