// forage-mcp is a stdio MCP server exposing the forage HTTP API as tools,
// so MCP-capable assistants can scrape pages and run web searches.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/forage/models"
)

func main() {
	apiURL := os.Getenv("FORAGE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FORAGE_API_KEY")

	s := server.NewMCPServer(
		"forage",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_url",
		mcp.WithDescription("Scrape a web page and return its content as clean Markdown. Falls back to a headless browser for JavaScript-heavy pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to scrape"),
		),
		mcp.WithBoolean("only_main_content",
			mcp.Description("Extract only the main article content (default: true)"),
		),
	)
	s.AddTool(scrapeTool, handleScrapeURL(apiURL, apiKey))

	searchTool := mcp.NewTool("web_search",
		mcp.WithDescription("Run a keyword web search and return the top results with title, URL and snippet. Optionally scrape each result into Markdown."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (1-20, default: 5)"),
		),
		mcp.WithBoolean("scrape_results",
			mcp.Description("Also scrape each result into Markdown (slower)"),
		),
	)
	s.AddTool(searchTool, handleWebSearch(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST to the forage API and returns status plus body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

func apiError(body []byte) string {
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		if e.Detail != "" {
			return fmt.Sprintf("[%s] %s", e.Error, e.Detail)
		}
		return e.Error
	}
	return "request failed"
}

func handleScrapeURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 90 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		onlyMain := request.GetBool("only_main_content", true)

		status, body, err := apiPost(ctx, client, apiURL, apiKey, "/scrape", models.ScrapeRequest{
			URL:             url,
			OnlyMainContent: &onlyMain,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body)), nil
		}

		var resp models.ScrapeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success || resp.Data == nil {
			return mcp.NewToolResultError("scrape failed"), nil
		}

		result := fmt.Sprintf("Title: %s\nSource: %s\n\n%s",
			resp.Data.Metadata.Title, resp.Data.Metadata.SourceURL, resp.Data.Markdown)
		return mcp.NewToolResultText(result), nil
	}
}

func handleWebSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		searchReq := models.SearchRequest{
			Query: query,
			Limit: request.GetInt("limit", 5),
		}
		if request.GetBool("scrape_results", false) {
			searchReq.ScrapeOptions = &models.SearchScrapeOptions{
				Formats: []string{models.FormatMarkdown},
			}
		}

		status, body, err := apiPost(ctx, client, apiURL, apiKey, "/search", searchReq)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body)), nil
		}

		var resp models.SearchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success || resp.Data == nil {
			return mcp.NewToolResultError("search failed"), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d results for %q:\n\n", len(resp.Data.Web), query))
		for _, r := range resp.Data.Web {
			sb.WriteString(fmt.Sprintf("%d. %s\n%s\n", r.Position, r.Title, r.URL))
			if r.Description != "" {
				sb.WriteString(r.Description + "\n")
			}
			if r.Markdown != "" {
				sb.WriteString("\n" + r.Markdown + "\n")
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
