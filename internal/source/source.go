// Package source defines the SourceTool gateway that research workers query,
// the signal-to-capability routing table, and reference backend adapters.
// The orchestrator core depends only on the SourceTool interface.
package source

import (
	"context"
	"fmt"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// SourceTool is the capability interface workers call. Implementations wrap
// a retrieval backend; retry and backoff for the backend's own transport is
// the implementation's concern.
type SourceTool interface {
	// Name returns the capability name this tool serves.
	Name() string
	// Search runs one query and returns its results.
	Search(ctx context.Context, query string) (*models.ResultSet, error)
}

// Signal identifies the kind of evidence a research thread is after. Each
// signal routes to one named capability.
type Signal string

const (
	// SignalCode is for code, API, and implementation questions.
	SignalCode Signal = "code"
	// SignalConcept is for conceptual, opinion, and background questions.
	SignalConcept Signal = "concept"
	// SignalTutorial is for tutorial and talk/video material.
	SignalTutorial Signal = "tutorial"
	// SignalRecent is for very recent events that written sources miss.
	SignalRecent Signal = "recent"
	// SignalURL is for a known URL that should be fetched directly.
	SignalURL Signal = "url"
)

// Default capability names, one per signal.
const (
	CapabilityCodeContext    = "code-context"
	CapabilitySemanticSearch = "semantic-search"
	CapabilityTranscript     = "transcript-search"
	CapabilityWebSearch      = "web-search"
	CapabilityURLFetch       = "url-fetch"
)

// defaultRouting is the static signal-to-capability table. User configuration
// overrides individual entries, never the set of signals.
var defaultRouting = map[Signal]string{
	SignalCode:     CapabilityCodeContext,
	SignalConcept:  CapabilitySemanticSearch,
	SignalTutorial: CapabilityTranscript,
	SignalRecent:   CapabilityWebSearch,
	SignalURL:      CapabilityURLFetch,
}

// RoutingTable maps signals to capability names. It is injected
// configuration; the orchestrator never branches on backend identity.
type RoutingTable map[Signal]string

// DefaultRouting returns a copy of the built-in routing table.
func DefaultRouting() RoutingTable {
	rt := make(RoutingTable, len(defaultRouting))
	for sig, cap := range defaultRouting {
		rt[sig] = cap
	}
	return rt
}

// Capability resolves a signal to its capability name, falling back to the
// built-in table for signals the user did not override.
func (rt RoutingTable) Capability(sig Signal) string {
	if rt != nil {
		if cap, ok := rt[sig]; ok && cap != "" {
			return cap
		}
	}
	return defaultRouting[sig]
}

// Merge overlays non-empty entries from other onto a copy of rt.
func (rt RoutingTable) Merge(other RoutingTable) RoutingTable {
	merged := make(RoutingTable, len(rt)+len(other))
	for sig, cap := range rt {
		merged[sig] = cap
	}
	for sig, cap := range other {
		if cap != "" {
			merged[sig] = cap
		}
	}
	return merged
}

// ErrUnknownCapability is returned when a thread references a capability no
// registered tool serves.
type ErrUnknownCapability struct {
	// Capability is the unresolved capability name.
	Capability string
}

// Error implements the error interface.
func (e *ErrUnknownCapability) Error() string {
	return fmt.Sprintf("no source tool registered for capability %q", e.Capability)
}
