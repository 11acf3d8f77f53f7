package classify

import "fmt"

// ClassificationError indicates a query that cannot be classified. It is
// fatal: no plan is built and no workers run.
type ClassificationError struct {
	// Query is the offending query.
	Query string
	// Reason explains why classification failed.
	Reason string
}

// Error implements the error interface.
func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify query: %s", e.Reason)
}
