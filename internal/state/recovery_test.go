package state

import (
	"testing"
	"time"
)

func TestCheckForInterrupted(t *testing.T) {
	db := openTestDB(t)
	rm := NewRecoveryManager(db)
	rm.staleAfter = time.Minute

	stale := &Run{ID: "stale", Query: "q", QueryType: "domain", Complexity: "simple", Status: RunActive, StartedAt: time.Now().Add(-time.Hour)}
	live := &Run{ID: "live", Query: "q", QueryType: "domain", Complexity: "simple", Status: RunActive, StartedAt: time.Now()}
	done := &Run{ID: "done", Query: "q", QueryType: "domain", Complexity: "simple", Status: RunCompleted, StartedAt: time.Now().Add(-time.Hour)}
	for _, r := range []*Run{stale, live, done} {
		if err := db.CreateRun(r); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
	}
	if err := db.CreateThread(&Thread{RunID: "stale", ThreadID: "01-a", Focus: "f", Capability: "web-search", Status: ThreadRunning}); err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	interrupted, err := rm.CheckForInterrupted()
	if err != nil {
		t.Fatalf("CheckForInterrupted() error = %v", err)
	}
	if len(interrupted) != 1 {
		t.Fatalf("found %d interrupted runs, want 1", len(interrupted))
	}
	if interrupted[0].RunID != "stale" {
		t.Errorf("RunID = %q, want stale", interrupted[0].RunID)
	}
	if interrupted[0].RunningThreads != 1 {
		t.Errorf("RunningThreads = %d, want 1", interrupted[0].RunningThreads)
	}
}

func TestCleanMarksRunAndThreadsFailed(t *testing.T) {
	db := openTestDB(t)
	rm := NewRecoveryManager(db)

	run := &Run{ID: "r1", Query: "q", QueryType: "technical", Complexity: "moderate", Status: RunActive, StartedAt: time.Now().Add(-time.Hour)}
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	for _, th := range []Thread{
		{RunID: "r1", ThreadID: "01-a", Focus: "f", Capability: "web-search", Status: ThreadRunning},
		{RunID: "r1", ThreadID: "02-b", Focus: "f", Capability: "web-search", Status: ThreadDone},
	} {
		th := th
		if err := db.CreateThread(&th); err != nil {
			t.Fatalf("CreateThread() error = %v", err)
		}
	}

	if err := rm.Clean("r1"); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	got, err := db.GetRun("r1")
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Status != RunFailed {
		t.Errorf("run Status = %q, want %q", got.Status, RunFailed)
	}

	threads, err := db.ListThreads("r1")
	if err != nil {
		t.Fatalf("ListThreads() error = %v", err)
	}
	if threads[0].Status != ThreadFailed {
		t.Errorf("running thread Status = %q, want %q", threads[0].Status, ThreadFailed)
	}
	if threads[1].Status != ThreadDone {
		t.Errorf("done thread Status = %q, want %q (must not be touched)", threads[1].Status, ThreadDone)
	}
}

func TestCleanUnknownRun(t *testing.T) {
	db := openTestDB(t)
	rm := NewRecoveryManager(db)

	if err := rm.Clean("missing"); err == nil {
		t.Error("Clean() on unknown run did not error")
	}
}
