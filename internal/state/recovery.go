package state

import (
	"fmt"
	"time"
)

// InterruptedRun describes a run left active by a crashed or killed process.
type InterruptedRun struct {
	RunID          string
	Query          string
	StartedAt      time.Time
	RunningThreads int
}

// RecoveryManager detects and cleans up runs interrupted mid-flight.
// A run is interrupted when it is still marked active but its process is
// gone; since runs are single-process and short-lived, any active run older
// than the stale cutoff qualifies.
type RecoveryManager struct {
	db *DB
	// staleAfter is how old an active run must be to count as interrupted.
	staleAfter time.Duration
}

// defaultStaleAfter is generous next to the per-worker deadline, so a slow
// but live run is never swept.
const defaultStaleAfter = 30 * time.Minute

// NewRecoveryManager creates a RecoveryManager with the given database.
func NewRecoveryManager(db *DB) *RecoveryManager {
	return &RecoveryManager{db: db, staleAfter: defaultStaleAfter}
}

// CheckForInterrupted returns any stale active runs found on startup.
func (rm *RecoveryManager) CheckForInterrupted() ([]InterruptedRun, error) {
	status := RunActive
	runs, err := rm.db.ListRuns(&status)
	if err != nil {
		return nil, fmt.Errorf("list active runs: %w", err)
	}

	cutoff := time.Now().Add(-rm.staleAfter)
	var interrupted []InterruptedRun
	for _, r := range runs {
		if r.StartedAt.After(cutoff) {
			continue
		}

		threads, err := rm.db.ListThreads(r.ID)
		if err != nil {
			return nil, fmt.Errorf("list threads for run %s: %w", r.ID, err)
		}
		running := 0
		for _, t := range threads {
			if t.Status == ThreadRunning {
				running++
			}
		}

		interrupted = append(interrupted, InterruptedRun{
			RunID:          r.ID,
			Query:          r.Query,
			StartedAt:      r.StartedAt,
			RunningThreads: running,
		})
	}

	return interrupted, nil
}

// Clean marks an interrupted run and its still-running threads as failed.
func (rm *RecoveryManager) Clean(runID string) error {
	run, err := rm.db.GetRun(runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	threads, err := rm.db.ListThreads(runID)
	if err != nil {
		return fmt.Errorf("list threads: %w", err)
	}
	for _, t := range threads {
		if t.Status != ThreadRunning {
			continue
		}
		if err := rm.db.UpdateThreadStatus(runID, t.ThreadID, ThreadFailed, "run interrupted"); err != nil {
			return fmt.Errorf("fail thread %s: %w", t.ThreadID, err)
		}
	}

	if err := rm.db.CompleteRun(runID, RunFailed, run.Format); err != nil {
		return fmt.Errorf("mark run failed: %w", err)
	}
	return nil
}

// CleanAll cleans every interrupted run. Returns the number cleaned.
func (rm *RecoveryManager) CleanAll() (int, error) {
	interrupted, err := rm.CheckForInterrupted()
	if err != nil {
		return 0, err
	}
	for _, r := range interrupted {
		if err := rm.Clean(r.RunID); err != nil {
			return 0, err
		}
	}
	return len(interrupted), nil
}
