// Package orchestrator coordinates a research run: it classifies the query,
// builds the plan, fans out isolated research workers, and synthesizes the
// final output after the barrier.
package orchestrator

import (
	"time"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventRunStarted indicates a research run has begun.
	EventRunStarted EventType = "run_started"
	// EventPlanWritten indicates the plan artifact has been persisted.
	EventPlanWritten EventType = "plan_written"
	// EventWorkerStarted indicates a research worker has started.
	EventWorkerStarted EventType = "worker_started"
	// EventWorkerDeepening indicates a worker entered a deepening round.
	EventWorkerDeepening EventType = "worker_deepening"
	// EventFindingWritten indicates a worker persisted its finding.
	EventFindingWritten EventType = "finding_written"
	// EventWorkerFailed indicates a worker reached a failed terminal state.
	EventWorkerFailed EventType = "worker_failed"
	// EventWorkerTimedOut indicates a worker exceeded its deadline.
	EventWorkerTimedOut EventType = "worker_timed_out"
	// EventSynthesisStarted indicates the barrier passed and aggregation began.
	EventSynthesisStarted EventType = "synthesis_started"
	// EventFinalOutputWritten indicates the final output has been persisted.
	EventFinalOutputWritten EventType = "final_output_written"
	// EventRunDone indicates the run completed.
	EventRunDone EventType = "run_done"
	// EventRunFailed indicates the run aborted with a fatal error.
	EventRunFailed EventType = "run_failed"
)

// Event represents an event emitted by the orchestrator. Events carry only
// small curated data, never raw search results.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// RunID is the ID of the run this event belongs to.
	RunID string
	// ThreadID is the ID of the related thread, if applicable.
	ThreadID string
	// Focus is the focus of the related thread, if applicable.
	Focus string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Format is set on final-output events.
	Format models.Format
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
