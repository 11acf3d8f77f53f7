package models

import "time"

// TerminalStatus is the final state a worker reached, as observed by the
// dispatcher.
type TerminalStatus struct {
	// State is the terminal state kind.
	State TerminalState `json:"state"`
	// Reason carries failure detail for failed workers.
	Reason string `json:"reason,omitempty"`
}

// TerminalState enumerates the ways a worker can finish.
type TerminalState string

const (
	// TerminalDone indicates the worker wrote its finding and exited cleanly.
	TerminalDone TerminalState = "done"
	// TerminalFailed indicates the worker could not complete.
	TerminalFailed TerminalState = "failed"
	// TerminalTimedOut indicates the worker exceeded its deadline.
	TerminalTimedOut TerminalState = "timed_out"
)

// Valid returns true if the state is a known value.
func (s TerminalState) Valid() bool {
	switch s {
	case TerminalDone, TerminalFailed, TerminalTimedOut:
		return true
	default:
		return false
	}
}

// Conflict records two mutually exclusive claims on the same topic. Both
// sides are always retained; Preferred is only a secondary authority signal
// and is empty when the sources are equally ranked.
type Conflict struct {
	// Topic is the sub-question the claims disagree on.
	Topic string `json:"topic"`
	// A is the first claim.
	A Claim `json:"a"`
	// B is the second claim.
	B Claim `json:"b"`
	// Preferred is "a" or "b" when the authority tie-break favors one side,
	// empty when undecidable.
	Preferred string `json:"preferred,omitempty"`
}

// FinalOutput is the terminal artifact of a run, produced exactly once by
// the synthesizer after the barrier.
type FinalOutput struct {
	// RunID is the identifier of the run.
	RunID string `json:"run_id"`
	// Format is the shape of the body.
	Format Format `json:"format"`
	// Body is the rendered markdown output.
	Body string `json:"body"`
	// Conflicts are the flagged disagreements between findings.
	Conflicts []Conflict `json:"conflicts,omitempty"`
	// MissingThreads names threads that produced no finding.
	MissingThreads []string `json:"missing_threads,omitempty"`
	// LowConfidence marks a run that produced zero findings.
	LowConfidence bool `json:"low_confidence,omitempty"`
	// GeneratedAt is when the synthesizer produced this output.
	GeneratedAt time.Time `json:"generated_at"`
}
