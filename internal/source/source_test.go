package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/surveyorhq/surveyor/pkg/models"
)

type countingTool struct {
	name  string
	calls atomic.Int64
	err   error
}

func (c *countingTool) Name() string { return c.name }

func (c *countingTool) Search(ctx context.Context, query string) (*models.ResultSet, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &models.ResultSet{
		Query:      query,
		Capability: c.name,
		Results:    []models.Result{{Title: "hit for " + query, Snippet: "snippet"}},
	}, nil
}

func TestDefaultRoutingCoversAllSignals(t *testing.T) {
	rt := DefaultRouting()
	for _, sig := range []Signal{SignalCode, SignalConcept, SignalTutorial, SignalRecent, SignalURL} {
		if rt.Capability(sig) == "" {
			t.Errorf("no capability for signal %q", sig)
		}
	}
}

func TestRoutingMergeOverrides(t *testing.T) {
	rt := DefaultRouting().Merge(RoutingTable{SignalConcept: "my-search"})

	if got := rt.Capability(SignalConcept); got != "my-search" {
		t.Errorf("concept -> %q, want my-search", got)
	}
	if got := rt.Capability(SignalCode); got != CapabilityCodeContext {
		t.Errorf("code -> %q, want untouched default", got)
	}
	// Merge must not mutate the package default.
	if got := DefaultRouting().Capability(SignalConcept); got != CapabilitySemanticSearch {
		t.Errorf("default table was mutated: concept -> %q", got)
	}
}

func TestRegistryUnknownCapability(t *testing.T) {
	r := NewRegistry()
	r.Register(&countingTool{name: "web-search"})

	if _, err := r.Get("web-search"); err != nil {
		t.Errorf("Get(web-search) error = %v", err)
	}

	_, err := r.Get("nope")
	var unknown *ErrUnknownCapability
	if !errors.As(err, &unknown) {
		t.Errorf("Get(nope) error = %v, want ErrUnknownCapability", err)
	}
}

func TestLoadRoutingTableMissingFileUsesDefaults(t *testing.T) {
	rt, err := LoadRoutingTable(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadRoutingTable() error = %v", err)
	}
	if got := rt.Capability(SignalCode); got != CapabilityCodeContext {
		t.Errorf("code -> %q, want default", got)
	}
}

func TestLoadRoutingTableOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routing.yaml")
	content := "routing:\n  concept: corp-search\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write routing file: %v", err)
	}

	rt, err := LoadRoutingTable(path)
	if err != nil {
		t.Fatalf("LoadRoutingTable() error = %v", err)
	}
	if got := rt.Capability(SignalConcept); got != "corp-search" {
		t.Errorf("concept -> %q, want corp-search", got)
	}
	if got := rt.Capability(SignalRecent); got != CapabilityWebSearch {
		t.Errorf("recent -> %q, want default", got)
	}
}

func TestCacheHitsSkipInnerTool(t *testing.T) {
	inner := &countingTool{name: "web-search"}
	cached, err := WithCache(inner, 8)
	if err != nil {
		t.Fatalf("WithCache() error = %v", err)
	}

	ctx := context.Background()
	first, err := cached.Search(ctx, "same query")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second, err := cached.Search(ctx, "same query")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if inner.calls.Load() != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls.Load())
	}
	if first.Results[0].Title != second.Results[0].Title {
		t.Error("cached result differs from original")
	}

	if _, err := cached.Search(ctx, "different query"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if inner.calls.Load() != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls.Load())
	}
}

func TestCacheNeverCachesErrors(t *testing.T) {
	inner := &countingTool{name: "web-search", err: errors.New("transient")}
	cached, err := WithCache(inner, 8)
	if err != nil {
		t.Fatalf("WithCache() error = %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := cached.Search(ctx, "q"); err == nil {
			t.Fatal("Search() error = nil, want transient error")
		}
	}
	if inner.calls.Load() != 2 {
		t.Errorf("inner called %d times, want 2 (errors not cached)", inner.calls.Load())
	}
	if cached.Len() != 0 {
		t.Errorf("cache holds %d entries after errors, want 0", cached.Len())
	}
}

func TestParseResultLines(t *testing.T) {
	text := `Go scheduler design | https://go.dev/s/go11sched | primary_doc | The scheduler multiplexes goroutines onto threads.
Runtime source | https://github.com/golang/go | code | proc.go implements the scheduler.
garbage line without pipes
Only | two-ish | fields
Untyped claim | - | nonsense-type | Stated without a known source type.`

	results := parseResultLines(text)
	if len(results) != 3 {
		t.Fatalf("parsed %d results, want 3", len(results))
	}

	if results[0].Type != models.SourcePrimaryDoc {
		t.Errorf("first type = %q, want primary_doc", results[0].Type)
	}
	if results[1].URL != "https://github.com/golang/go" {
		t.Errorf("second URL = %q", results[1].URL)
	}
	if results[2].URL != "" {
		t.Errorf("dash URL should map to empty, got %q", results[2].URL)
	}
	if results[2].Type != models.SourceUnknown {
		t.Errorf("unknown type should normalize to unknown, got %q", results[2].Type)
	}
}

func TestWebSearchTool(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"hits":[
			{"title":"First","link":"https://a.example","description":"alpha"},
			{"name":"Second","url":"https://b.example","snippet":"beta"},
			{"irrelevant":true}
		]}}`))
	}))
	defer server.Close()

	tool, err := NewWebSearchTool(WebSearchConfig{
		Endpoint:    server.URL,
		APIKey:      "secret",
		ResultsPath: "data.hits",
	})
	if err != nil {
		t.Fatalf("NewWebSearchTool() error = %v", err)
	}

	rs, err := tool.Search(context.Background(), "alpha beta")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotQuery != "alpha beta" {
		t.Errorf("query param = %q", gotQuery)
	}
	if len(rs.Results) != 2 {
		t.Fatalf("got %d results, want 2 (empty items skipped)", len(rs.Results))
	}
	if rs.Results[0].Title != "First" || rs.Results[0].URL != "https://a.example" {
		t.Errorf("first result = %+v", rs.Results[0])
	}
	if rs.Results[1].Title != "Second" || rs.Results[1].Snippet != "beta" {
		t.Errorf("second result = %+v", rs.Results[1])
	}
}

func TestWebSearchToolErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tool, err := NewWebSearchTool(WebSearchConfig{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewWebSearchTool() error = %v", err)
	}

	if _, err := tool.Search(context.Background(), "q"); err == nil {
		t.Error("Search() error = nil, want status error")
	}
}

func TestFetchToolFlattensJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"thing","spec":{"version":"2.1"}}`))
	}))
	defer server.Close()

	tool := NewFetchTool(server.Client())
	rs, err := tool.Search(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(rs.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(rs.Results))
	}
	result := rs.Results[0]
	if result.Type != models.SourcePrimaryDoc {
		t.Errorf("type = %q, want primary_doc", result.Type)
	}
	for _, want := range []string{"name: thing", "spec.version: 2.1"} {
		if !strings.Contains(result.Snippet, want) {
			t.Errorf("snippet missing %q:\n%s", want, result.Snippet)
		}
	}
}

func TestFetchToolRejectsNonHTTP(t *testing.T) {
	tool := NewFetchTool(nil)
	if _, err := tool.Search(context.Background(), "ftp://example.com"); err == nil {
		t.Error("Search() error = nil, want scheme error")
	}
}
