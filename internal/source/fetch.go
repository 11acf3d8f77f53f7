package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// fetchBodyLimit caps how much of a fetched document is kept.
const fetchBodyLimit = 1 << 20

// FetchTool retrieves a known URL directly. The "query" given to Search is
// the URL itself.
type FetchTool struct {
	name   string
	client *http.Client
}

// NewFetchTool creates a FetchTool. A nil client uses a default with a
// 30 second timeout.
func NewFetchTool(client *http.Client) *FetchTool {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FetchTool{
		name:   CapabilityURLFetch,
		client: client,
	}
}

// Name returns the capability name.
func (t *FetchTool) Name() string {
	return t.name
}

// Search fetches the URL and returns its content as a single result. JSON
// responses are flattened to their string leaves; anything else is kept as
// raw text.
func (t *FetchTool) Search(ctx context.Context, rawURL string) (*models.ResultSet, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("url fetch: %q is not an http(s) URL", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("url fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("url fetch: unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read fetched body: %w", err)
	}

	snippet := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") && gjson.ValidBytes(body) {
		snippet = flattenJSON(body)
	}

	return &models.ResultSet{
		Query:      rawURL,
		Capability: t.name,
		Results: []models.Result{
			{
				Title:   rawURL,
				URL:     rawURL,
				Snippet: snippet,
				Type:    models.SourcePrimaryDoc,
			},
		},
	}, nil
}

// flattenJSON renders the string leaves of a JSON document as "path: value"
// lines, which reads better in a finding than raw JSON.
func flattenJSON(body []byte) string {
	var b strings.Builder
	var walk func(prefix string, v gjson.Result)
	walk = func(prefix string, v gjson.Result) {
		if v.IsObject() || v.IsArray() {
			v.ForEach(func(key, val gjson.Result) bool {
				p := key.String()
				if prefix != "" {
					p = prefix + "." + p
				}
				walk(p, val)
				return true
			})
			return
		}
		fmt.Fprintf(&b, "%s: %s\n", prefix, v.String())
	}
	walk("", gjson.ParseBytes(body))
	return b.String()
}
