package cache

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/use-agent/forage/models"
)

func result(markdown string) *models.ExtractionResult {
	return &models.ExtractionResult{Markdown: markdown}
}

func TestGetSet_RoundTrip(t *testing.T) {
	c := New(10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}

	c.Set("a", result("# A"))
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("Get after Set missed")
	}
	if got.Markdown != "# A" {
		t.Errorf("Markdown = %q, want %q", got.Markdown, "# A")
	}
}

func TestSet_RespectsMaxSize(t *testing.T) {
	c := New(3, time.Minute)
	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("k%d", i), result("x"))
		if c.Len() > 3 {
			t.Fatalf("Len = %d after %d sets, want <= 3", c.Len(), i+1)
		}
	}
}

func TestTTL_Expiry(t *testing.T) {
	c := New(10, 100*time.Millisecond)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", result("x"))
	if !c.Has("a") {
		t.Fatal("entry absent before TTL elapsed")
	}

	now = now.Add(101 * time.Millisecond)
	if c.Has("a") {
		t.Fatal("entry still present after TTL elapsed")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get returned an expired entry")
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2, time.Minute)

	c.Set("a", result("a"))
	c.Set("b", result("b"))
	c.Set("c", result("c"))

	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should survive")
	}
}

func TestLRU_GetPromotes(t *testing.T) {
	c := New(2, time.Minute)

	c.Set("a", result("a"))
	c.Set("b", result("b"))
	c.Get("a") // a becomes most recently used
	c.Set("c", result("c"))

	if _, ok := c.Get("a"); !ok {
		t.Error("a was promoted and should survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
}

func TestSet_ReplacesExistingKey(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("a", result("v1"))
	c.Set("a", result("v2"))

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	got, _ := c.Get("a")
	if got.Markdown != "v2" {
		t.Errorf("Markdown = %q, want v2", got.Markdown)
	}
}

func TestClear(t *testing.T) {
	c := New(5, time.Minute)
	c.Set("a", result("a"))
	c.Set("b", result("b"))
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if c.Has("a") {
		t.Error("entry survived Clear")
	}
}

var keyPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

func TestKey_Format(t *testing.T) {
	k := Key("scrape", map[string]string{"url": "https://example.com"})
	if !keyPattern.MatchString(k) {
		t.Errorf("Key = %q, want 24 lowercase hex chars", k)
	}
}

func TestKey_OrderInsensitive(t *testing.T) {
	a := Key("scrape", map[string]string{"a": "1", "z": "2"})
	b := Key("scrape", map[string]string{"z": "2", "a": "1"})
	if a != b {
		t.Errorf("keys differ for identical field sets: %q vs %q", a, b)
	}
}

func TestKey_Distinguishes(t *testing.T) {
	base := Key("scrape", map[string]string{"url": "https://example.com"})
	if Key("search", map[string]string{"url": "https://example.com"}) == base {
		t.Error("different operation produced the same key")
	}
	if Key("scrape", map[string]string{"url": "https://example.org"}) == base {
		t.Error("different value produced the same key")
	}
	if Key("scrape", map[string]string{"url": "https://example.com", "formats": "links"}) == base {
		t.Error("extra field produced the same key")
	}
}

func TestKey_Deterministic(t *testing.T) {
	fields := map[string]string{"url": "https://example.com", "onlyMainContent": "true"}
	first := Key("scrape", fields)
	for i := 0; i < 10; i++ {
		if got := Key("scrape", fields); got != first {
			t.Fatalf("Key changed between calls: %q vs %q", got, first)
		}
	}
}
