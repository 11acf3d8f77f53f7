package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/surveyorhq/surveyor/internal/classify"
	"github.com/surveyorhq/surveyor/internal/source"
	"github.com/surveyorhq/surveyor/internal/state"
	"github.com/surveyorhq/surveyor/internal/store"
	"github.com/surveyorhq/surveyor/pkg/models"
)

// fullRegistry registers a working fake for every default capability.
func fullRegistry() *source.Registry {
	r := source.NewRegistry()
	for _, name := range []string{
		source.CapabilityCodeContext,
		source.CapabilitySemanticSearch,
		source.CapabilityTranscript,
		source.CapabilityWebSearch,
		source.CapabilityURLFetch,
	} {
		r.Register(&fakeTool{name: name, results: someResults(3)})
	}
	return r
}

func TestOrchestratorRunEndToEnd(t *testing.T) {
	dataDir := t.TempDir()

	orch, err := NewOrchestrator(RequiredConfig{
		Registry: fullRegistry(),
		DataDir:  dataDir,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	defer orch.Stop()

	var events []Event
	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		for event := range orch.Events() {
			events = append(events, event)
		}
	}()

	output, err := orch.Run(context.Background(), "How does Go schedule goroutines onto OS threads?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	orch.Stop()
	<-eventsDone

	if output.RunID == "" {
		t.Fatal("output has no run ID")
	}
	if output.Body == "" {
		t.Error("output body is empty")
	}
	if output.Format != models.FormatBrief && output.Format != models.FormatReport {
		t.Errorf("Format = %q", output.Format)
	}
	if output.LowConfidence {
		t.Error("all workers succeeded; output must not be low confidence")
	}
	if len(output.MissingThreads) != 0 {
		t.Errorf("MissingThreads = %v, want none", output.MissingThreads)
	}

	// Artifacts are on disk and readable through the store.
	rs, err := store.OpenRunStore(dataDir, output.RunID)
	if err != nil {
		t.Fatalf("OpenRunStore() error = %v", err)
	}
	plan, err := rs.ReadPlan()
	if err != nil {
		t.Fatalf("ReadPlan() error = %v", err)
	}
	if len(plan.Threads) != plan.Classification.WorkerCount {
		t.Errorf("plan has %d threads, classification says %d", len(plan.Threads), plan.Classification.WorkerCount)
	}
	for _, id := range plan.ThreadIDs() {
		if _, found, _ := rs.ReadFinding(id); !found {
			t.Errorf("no finding for thread %s", id)
		}
	}
	persisted, err := rs.ReadFinalOutput()
	if err != nil {
		t.Fatalf("ReadFinalOutput() error = %v", err)
	}
	if persisted.Body != output.Body {
		t.Error("persisted output differs from returned output")
	}

	// Observable lifecycle events arrived in order.
	var sawStart, sawPlan, sawSynthesis, sawDone bool
	for _, event := range events {
		switch event.Type {
		case EventRunStarted:
			sawStart = true
		case EventPlanWritten:
			if !sawStart {
				t.Error("plan_written before run_started")
			}
			sawPlan = true
		case EventSynthesisStarted:
			if !sawPlan {
				t.Error("synthesis_started before plan_written")
			}
			sawSynthesis = true
		case EventRunDone:
			if !sawSynthesis {
				t.Error("run_done before synthesis_started")
			}
			sawDone = true
		}
	}
	if !sawDone {
		t.Error("run_done event never arrived")
	}
}

func TestOrchestratorClassificationErrorIsFatal(t *testing.T) {
	orch, err := NewOrchestrator(RequiredConfig{
		Registry: fullRegistry(),
		DataDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	defer orch.Stop()

	_, err = orch.Run(context.Background(), "   ")
	var cerr *classify.ClassificationError
	if !errors.As(err, &cerr) {
		t.Fatalf("Run() error = %v, want ClassificationError", err)
	}
}

func TestOrchestratorRequiredConfig(t *testing.T) {
	if _, err := NewOrchestrator(RequiredConfig{DataDir: "x"}); err == nil {
		t.Error("missing registry did not error")
	}
	if _, err := NewOrchestrator(RequiredConfig{Registry: source.NewRegistry()}); err == nil {
		t.Error("missing data dir did not error")
	}
}

func TestOrchestratorPersistsState(t *testing.T) {
	db, err := state.Open(t.TempDir() + "/surveyor.db")
	if err != nil {
		t.Fatalf("state.Open() error = %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	defer db.Close()

	orch, err := NewOrchestrator(RequiredConfig{
		Registry: fullRegistry(),
		DataDir:  t.TempDir(),
	}, WithStateDB(db))
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	defer orch.Stop()

	output, err := orch.Run(context.Background(), "Compare Postgres and MySQL replication")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	run, err := db.GetRun(output.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run == nil {
		t.Fatal("run was not persisted")
	}
	if run.Status != state.RunCompleted {
		t.Errorf("run status = %q, want completed", run.Status)
	}
	if run.Format != string(output.Format) {
		t.Errorf("run format = %q, want %q", run.Format, output.Format)
	}

	threads, err := db.ListThreads(output.RunID)
	if err != nil {
		t.Fatalf("ListThreads() error = %v", err)
	}
	if len(threads) != run.WorkerCount {
		t.Errorf("persisted %d threads, want %d", len(threads), run.WorkerCount)
	}
	for _, th := range threads {
		if th.Status != state.ThreadDone {
			t.Errorf("thread %s status = %q, want done", th.ThreadID, th.Status)
		}
	}
}

func TestRunPoolSubmitAndStop(t *testing.T) {
	pool := NewRunPool(PoolConfig{
		Required: RequiredConfig{
			Registry: fullRegistry(),
			DataDir:  t.TempDir(),
		},
	})

	id, err := pool.Submit("What is a bloom filter?")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id == "" {
		t.Fatal("Submit() returned empty handle")
	}

	// Wait for the terminal event, then stop the pool.
	for event := range pool.Events() {
		if event.Type == EventRunDone || event.Type == EventRunFailed {
			if event.Type == EventRunFailed {
				t.Errorf("run failed: %v", event.Error)
			}
			break
		}
	}
	if err := pool.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if pool.Count() != 0 {
		t.Errorf("Count() = %d after Stop, want 0", pool.Count())
	}
}

func TestRunPoolStopIsIdempotent(t *testing.T) {
	pool := NewRunPool(PoolConfig{
		Required: RequiredConfig{
			Registry: fullRegistry(),
			DataDir:  t.TempDir(),
		},
	})

	if _, err := pool.Submit("What is a trie?"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	for event := range pool.Events() {
		if event.Type == EventRunDone || event.Type == EventRunFailed {
			break
		}
	}

	// Both the interrupt path and the normal teardown path call Stop.
	if err := pool.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := pool.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
