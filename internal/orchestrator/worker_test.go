package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/surveyorhq/surveyor/internal/source"
	"github.com/surveyorhq/surveyor/internal/store"
	"github.com/surveyorhq/surveyor/pkg/models"
)

// fakeTool is a scriptable SourceTool for tests.
type fakeTool struct {
	name    string
	results []models.Result
	err     error
	block   bool
	panics  bool
	calls   atomic.Int64
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Search(ctx context.Context, query string) (*models.ResultSet, error) {
	f.calls.Add(1)
	if f.panics {
		panic("tool exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.ResultSet{
		Query:      query,
		Capability: f.name,
		Results:    f.results,
	}, nil
}

func someResults(n int) []models.Result {
	results := make([]models.Result, n)
	for i := range results {
		results[i] = models.Result{
			Title:   fmt.Sprintf("Result %d", i),
			URL:     fmt.Sprintf("https://example.com/%d", i),
			Snippet: fmt.Sprintf("Fact number %d about the topic. More detail follows.", i),
			Type:    models.SourceArticle,
		}
	}
	return results
}

func registryWith(tools ...*fakeTool) *source.Registry {
	r := source.NewRegistry()
	for _, tool := range tools {
		r.Register(tool)
	}
	return r
}

func testSpec() models.ThreadSpec {
	return models.ThreadSpec{
		ID:                "01-core",
		Focus:             "core behavior",
		PrimaryCapability: "code-context",
		Questions:         []string{"How does it work?", "What are the limits?"},
	}
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond}
}

func TestWorkerWritesFinding(t *testing.T) {
	rs, err := store.NewRunStore(t.TempDir(), "run1")
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}

	tool := &fakeTool{name: "code-context", results: someResults(2)}
	worker := NewResearchWorker(WorkerConfig{
		RunID:    "run1",
		Spec:     testSpec(),
		Registry: registryWith(tool),
		Routing:  source.DefaultRouting(),
		Store:    rs,
		Retry:    fastRetry(),
	})

	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if worker.State() != StateDone {
		t.Errorf("State() = %q, want %q", worker.State(), StateDone)
	}

	finding, ok, err := rs.ReadFinding("01-core")
	if err != nil {
		t.Fatalf("ReadFinding() error = %v", err)
	}
	if !ok {
		t.Fatal("finding was not written")
	}
	if finding.ThreadID != "01-core" {
		t.Errorf("ThreadID = %q", finding.ThreadID)
	}
	if finding.Summary == "" {
		t.Error("Summary is empty")
	}
	if len(finding.SourcesConsulted) == 0 {
		t.Error("no sources recorded")
	}
	if len(finding.Gaps) != 0 {
		t.Errorf("Gaps = %v, want none", finding.Gaps)
	}
	// Both questions plus enough results means exactly two search rounds.
	if finding.SearchRounds != 2 {
		t.Errorf("SearchRounds = %d, want 2", finding.SearchRounds)
	}
}

func TestWorkerCapabilityFailureBecomesGap(t *testing.T) {
	rs, err := store.NewRunStore(t.TempDir(), "run1")
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}

	tool := &fakeTool{name: "code-context", err: errors.New("backend down")}
	worker := NewResearchWorker(WorkerConfig{
		RunID:    "run1",
		Spec:     testSpec(),
		Registry: registryWith(tool),
		Routing:  source.DefaultRouting(),
		Store:    rs,
		Retry:    fastRetry(),
	})

	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil (failures become gaps)", err)
	}

	finding, ok, err := rs.ReadFinding("01-core")
	if err != nil || !ok {
		t.Fatalf("ReadFinding() = %v, %v", ok, err)
	}
	if len(finding.Gaps) == 0 {
		t.Fatal("expected gaps in partial finding")
	}
	if len(finding.SuggestedFollowUps) == 0 {
		t.Error("expected suggested follow-ups on a gapped finding")
	}
	// Retry policy was exercised before giving up.
	if got := tool.calls.Load(); got != 2 {
		t.Errorf("tool called %d times, want 2 (retry once)", got)
	}
}

func TestWorkerDeepeningIsBounded(t *testing.T) {
	rs, err := store.NewRunStore(t.TempDir(), "run1")
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}

	// Empty result sets are never satisfying, so only the round cap stops
	// the loop.
	primary := &fakeTool{name: "code-context"}
	fallback := &fakeTool{name: "web-search"}
	spec := testSpec()
	spec.Questions = nil

	emitter := NewEventEmitter(64)
	worker := NewResearchWorker(WorkerConfig{
		RunID:           "run1",
		Spec:            spec,
		Registry:        registryWith(primary, fallback),
		Routing:         source.DefaultRouting(),
		Store:           rs,
		Retry:           fastRetry(),
		MaxDeepenRounds: 3,
		Emitter:         emitter,
	})

	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	emitter.Close()

	deepenings := 0
	for event := range emitter.Events() {
		if event.Type == EventWorkerDeepening {
			deepenings++
		}
	}
	if deepenings != 3 {
		t.Errorf("deepening events = %d, want 3", deepenings)
	}

	// Empty evidence routes deepening to the recent-signal capability.
	if fallback.calls.Load() == 0 {
		t.Error("fallback capability was never consulted")
	}

	finding, ok, err := rs.ReadFinding("01-core")
	if err != nil || !ok {
		t.Fatalf("ReadFinding() = %v, %v", ok, err)
	}
	if len(finding.Gaps) == 0 {
		t.Error("empty evidence should be documented as a gap")
	}
}

func TestWorkerSummaryKeepsRuneBoundaries(t *testing.T) {
	rs, err := store.NewRunStore(t.TempDir(), "run1")
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}

	// 3-byte runes with no spaces or sentence breaks force the truncation
	// cut to land mid-rune unless it backs up to a boundary.
	snippet := strings.Repeat("界", 200)
	tool := &fakeTool{name: "code-context", results: []models.Result{{
		Title:   "Dense result",
		URL:     "https://example.com/dense",
		Snippet: snippet,
		Type:    models.SourceArticle,
	}}}

	spec := testSpec()
	spec.Questions = []string{"How does it work?"}
	worker := NewResearchWorker(WorkerConfig{
		RunID:      "run1",
		Spec:       spec,
		Registry:   registryWith(tool),
		Routing:    source.DefaultRouting(),
		Store:      rs,
		Retry:      fastRetry(),
		MinResults: 1,
	})

	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	finding, ok, err := rs.ReadFinding("01-core")
	if err != nil || !ok {
		t.Fatalf("ReadFinding() = %v, %v", ok, err)
	}
	if !utf8.ValidString(finding.Summary) {
		t.Error("truncated summary contains an invalid UTF-8 sequence")
	}
	if !strings.HasSuffix(finding.Summary, "…") {
		t.Errorf("long summary was not truncated: %q", finding.Summary)
	}
}

func TestWorkerContextDeadline(t *testing.T) {
	rs, err := store.NewRunStore(t.TempDir(), "run1")
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}

	tool := &fakeTool{name: "code-context", block: true}
	worker := NewResearchWorker(WorkerConfig{
		RunID:    "run1",
		Spec:     testSpec(),
		Registry: registryWith(tool),
		Routing:  source.DefaultRouting(),
		Store:    rs,
		Retry:    fastRetry(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = worker.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}

	_, ok, err := rs.ReadFinding("01-core")
	if err != nil {
		t.Fatalf("ReadFinding() error = %v", err)
	}
	if ok {
		t.Error("timed-out worker must not write a finding")
	}
}

func TestWorkerUnknownCapabilityBecomesGap(t *testing.T) {
	rs, err := store.NewRunStore(t.TempDir(), "run1")
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}

	spec := testSpec()
	spec.PrimaryCapability = "no-such-capability"
	worker := NewResearchWorker(WorkerConfig{
		RunID:    "run1",
		Spec:     spec,
		Registry: source.NewRegistry(),
		Routing:  source.DefaultRouting(),
		Store:    rs,
		Retry:    fastRetry(),
	})

	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	finding, ok, _ := rs.ReadFinding("01-core")
	if !ok {
		t.Fatal("expected partial finding")
	}
	if len(finding.Gaps) == 0 {
		t.Error("unknown capability should be a documented gap")
	}
}
