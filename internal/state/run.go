package state

import (
	"database/sql"
	"fmt"
	"time"
)

// RunStatus represents the status of a research run.
type RunStatus string

const (
	RunActive    RunStatus = "active"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ThreadStatus represents the terminal status of a research thread.
type ThreadStatus string

const (
	ThreadRunning  ThreadStatus = "running"
	ThreadDone     ThreadStatus = "done"
	ThreadFailed   ThreadStatus = "failed"
	ThreadTimedOut ThreadStatus = "timed_out"
)

// Run represents a research run.
type Run struct {
	ID          string     `json:"id"`
	Query       string     `json:"query"`
	QueryType   string     `json:"query_type"`
	Complexity  string     `json:"complexity"`
	WorkerCount int        `json:"worker_count"`
	Format      string     `json:"format"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Thread represents one research thread within a run.
type Thread struct {
	RunID      string       `json:"run_id"`
	ThreadID   string       `json:"thread_id"`
	Focus      string       `json:"focus"`
	Capability string       `json:"capability"`
	Status     ThreadStatus `json:"status"`
	Reason     string       `json:"reason"`
}

// Run CRUD operations

// CreateRun creates a new run record.
func (db *DB) CreateRun(r *Run) error {
	_, err := db.Exec(`
		INSERT INTO runs (id, query, query_type, complexity, worker_count, format, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Query, r.QueryType, r.Complexity, r.WorkerCount, r.Format, string(r.Status), formatTime(r.StartedAt))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when the run does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, query, query_type, complexity, worker_count, format, status, started_at, completed_at
		FROM runs WHERE id = ?
	`, id)

	var r Run
	var startedAt string
	var completedAt sql.NullString
	err := row.Scan(&r.ID, &r.Query, &r.QueryType, &r.Complexity, &r.WorkerCount, &r.Format, &r.Status, &startedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	r.StartedAt, _ = parseTime(startedAt)
	r.CompletedAt = parseNullableTime(completedAt)
	return &r, nil
}

// CompleteRun marks a run terminal with the given status and output format.
func (db *DB) CompleteRun(id string, status RunStatus, format string) error {
	_, err := db.Exec(`
		UPDATE runs SET status = ?, format = ?, completed_at = ? WHERE id = ?
	`, string(status), format, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// ListRuns lists all runs, optionally filtered by status.
func (db *DB) ListRuns(status *RunStatus) ([]Run, error) {
	var rows *sql.Rows
	var err error

	if status != nil {
		rows, err = db.Query(`
			SELECT id, query, query_type, complexity, worker_count, format, status, started_at, completed_at
			FROM runs WHERE status = ? ORDER BY started_at DESC
		`, string(*status))
	} else {
		rows, err = db.Query(`
			SELECT id, query, query_type, complexity, worker_count, format, status, started_at, completed_at
			FROM runs ORDER BY started_at DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Query, &r.QueryType, &r.Complexity, &r.WorkerCount, &r.Format, &r.Status, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = parseTime(startedAt)
		r.CompletedAt = parseNullableTime(completedAt)
		runs = append(runs, r)
	}
	return runs, nil
}

// Thread CRUD operations

// CreateThread creates a new thread record.
func (db *DB) CreateThread(t *Thread) error {
	_, err := db.Exec(`
		INSERT INTO threads (run_id, thread_id, focus, capability, status, reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.RunID, t.ThreadID, t.Focus, t.Capability, string(t.Status), t.Reason)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	return nil
}

// UpdateThreadStatus records a thread's terminal status and reason.
func (db *DB) UpdateThreadStatus(runID, threadID string, status ThreadStatus, reason string) error {
	_, err := db.Exec(`
		UPDATE threads SET status = ?, reason = ? WHERE run_id = ? AND thread_id = ?
	`, string(status), reason, runID, threadID)
	if err != nil {
		return fmt.Errorf("update thread status: %w", err)
	}
	return nil
}

// ListThreads lists all threads for a run, ordered by thread ID.
func (db *DB) ListThreads(runID string) ([]Thread, error) {
	rows, err := db.Query(`
		SELECT run_id, thread_id, focus, capability, status, reason
		FROM threads WHERE run_id = ? ORDER BY thread_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var t Thread
		var reason sql.NullString
		if err := rows.Scan(&t.RunID, &t.ThreadID, &t.Focus, &t.Capability, &t.Status, &reason); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.Reason = reason.String
		threads = append(threads, t)
	}
	return threads, nil
}
