package state

import "io"

// RunRecorder handles run-level persistence operations.
type RunRecorder interface {
	CreateRun(r *Run) error
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, format string) error
	ListRuns(status *RunStatus) ([]Run, error)
}

// ThreadRecorder handles thread-level persistence operations.
type ThreadRecorder interface {
	CreateThread(t *Thread) error
	UpdateThreadStatus(runID, threadID string, status ThreadStatus, reason string) error
	ListThreads(runID string) ([]Thread, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// StateStore defines the interface for state persistence.
// The orchestrator depends on it rather than on the concrete SQLite
// implementation, which keeps tests free of a real database.
type StateStore interface {
	io.Closer
	Migrator
	RunRecorder
	ThreadRecorder
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore     = (*DB)(nil)
	_ Migrator       = (*DB)(nil)
	_ RunRecorder    = (*DB)(nil)
	_ ThreadRecorder = (*DB)(nil)
)
