package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// WebSearchConfig configures the generic HTTP web search backend.
type WebSearchConfig struct {
	// Capability is the capability name this tool serves. Defaults to
	// web-search.
	Capability string
	// Endpoint is the search API URL; the query is sent as the "q" parameter.
	Endpoint string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	// ResultsPath is the gjson path to the result array in the response.
	// Defaults to "results".
	ResultsPath string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// WebSearchTool queries a configurable HTTP search endpoint. Responses are
// read with gjson so loosely structured payloads from different providers
// all work: each result item needs some of title/url/snippet under common
// key names.
type WebSearchTool struct {
	name        string
	endpoint    string
	apiKey      string
	resultsPath string
	client      *http.Client
}

// NewWebSearchTool creates a WebSearchTool from configuration.
func NewWebSearchTool(cfg WebSearchConfig) (*WebSearchTool, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("web search endpoint is not configured")
	}

	name := cfg.Capability
	if name == "" {
		name = CapabilityWebSearch
	}
	resultsPath := cfg.ResultsPath
	if resultsPath == "" {
		resultsPath = "results"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &WebSearchTool{
		name:        name,
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		resultsPath: resultsPath,
		client:      client,
	}, nil
}

// Name returns the capability name.
func (t *WebSearchTool) Name() string {
	return t.name
}

// Search issues one GET against the endpoint and extracts results.
func (t *WebSearchTool) Search(ctx context.Context, query string) (*models.ResultSet, error) {
	reqURL := fmt.Sprintf("%s?q=%s", t.endpoint, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	rs := &models.ResultSet{
		Query:      query,
		Capability: t.name,
	}

	gjson.GetBytes(body, t.resultsPath).ForEach(func(_, item gjson.Result) bool {
		result := models.Result{
			Title:   firstString(item, "title", "name", "heading"),
			URL:     firstString(item, "url", "link", "href"),
			Snippet: firstString(item, "snippet", "description", "content", "text"),
			Type:    models.SourceArticle,
		}
		if result.Title == "" && result.Snippet == "" {
			return true
		}
		rs.Results = append(rs.Results, result)
		return true
	})

	return rs, nil
}

// firstString returns the first non-empty string value among the given keys.
func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := item.Get(key).String(); v != "" {
			return v
		}
	}
	return ""
}
