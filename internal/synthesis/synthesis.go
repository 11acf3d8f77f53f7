// Package synthesis aggregates worker findings into the final output. It
// runs strictly after the dispatch barrier: every worker is terminal (or the
// run deadline fired) before Synthesize is called.
package synthesis

import (
	"fmt"
	"strings"
	"time"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// Input is everything the synthesizer reads: the immutable plan, the
// dispatcher's terminal-status map, and whichever findings exist. The
// synthesizer never sees raw search results, only the curated findings.
type Input struct {
	// Plan is the run's plan, fixing thread order for output determinism.
	Plan *models.Plan
	// Statuses is the dispatcher's terminal status per thread ID.
	Statuses map[string]models.TerminalStatus
	// Findings holds the findings that exist, keyed by thread ID.
	Findings map[string]*models.Finding
}

// Synthesizer builds the final output from an Input. It is stateless;
// re-running it on the same input yields an identical decision.
type Synthesizer struct {
	now func() time.Time
}

// New creates a Synthesizer.
func New() *Synthesizer {
	return &Synthesizer{now: time.Now}
}

// Synthesize produces the run's terminal artifact. Missing findings are a
// recoverable condition surfaced in the limitations section; only a nil
// plan is an error.
func (s *Synthesizer) Synthesize(in Input) (*models.FinalOutput, error) {
	if in.Plan == nil {
		return nil, fmt.Errorf("synthesize: no plan")
	}

	missing := missingThreads(in)
	conflicts := DetectConflicts(in.Plan, in.Findings)
	format := DecideFormat(in.Plan.Classification.Complexity, len(conflicts) > 0, len(missing) == 0)

	out := &models.FinalOutput{
		RunID:          in.Plan.RunID,
		Format:         format,
		Conflicts:      conflicts,
		MissingThreads: missing,
		LowConfidence:  len(in.Findings) == 0,
		GeneratedAt:    s.now(),
	}

	if len(in.Findings) == 0 {
		out.Body = composeGapsOnly(in)
		return out, nil
	}

	if format == models.FormatBrief {
		out.Body = composeBrief(in)
	} else {
		out.Body = composeReport(in, conflicts, missing)
	}
	return out, nil
}

// DecideFormat is the pure format decision: brief iff the query was simple,
// no conflicts were detected, and every thread produced a finding.
func DecideFormat(complexity models.Complexity, conflictsDetected, allThreadsPresent bool) models.Format {
	if complexity == models.ComplexitySimple && !conflictsDetected && allThreadsPresent {
		return models.FormatBrief
	}
	return models.FormatReport
}

// missingThreads returns, in plan order, the IDs of threads with no finding.
func missingThreads(in Input) []string {
	var missing []string
	for _, thread := range in.Plan.Threads {
		if _, ok := in.Findings[thread.ID]; !ok {
			missing = append(missing, thread.ID)
		}
	}
	return missing
}

// DetectConflicts indexes claims by normalized topic across all findings and
// flags mutually exclusive pairs: a supporting and a refuting claim on the
// same topic. The authority tie-break is secondary; both claims are always
// kept and Preferred stays empty when the sources rank equally.
//
// Findings are scanned in plan order so the result is deterministic for a
// fixed set of findings.
func DetectConflicts(plan *models.Plan, findings map[string]*models.Finding) []models.Conflict {
	type indexed struct {
		claim models.Claim
	}
	byTopic := make(map[string][]indexed)
	var topicOrder []string

	for _, thread := range plan.Threads {
		f, ok := findings[thread.ID]
		if !ok {
			continue
		}
		for _, claim := range f.Claims {
			topic := normalizeTopic(claim.Topic)
			if topic == "" {
				continue
			}
			if _, seen := byTopic[topic]; !seen {
				topicOrder = append(topicOrder, topic)
			}
			byTopic[topic] = append(byTopic[topic], indexed{claim: claim})
		}
	}

	var conflicts []models.Conflict
	for _, topic := range topicOrder {
		claims := byTopic[topic]
		for i := 0; i < len(claims); i++ {
			for j := i + 1; j < len(claims); j++ {
				a, b := claims[i].claim, claims[j].claim
				if !mutuallyExclusive(a.Stance, b.Stance) {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					Topic:     topic,
					A:         a,
					B:         b,
					Preferred: preferByAuthority(a, b),
				})
			}
		}
	}
	return conflicts
}

// mutuallyExclusive reports whether two stances cannot both hold.
func mutuallyExclusive(a, b models.Stance) bool {
	return (a == models.StanceSupports && b == models.StanceRefutes) ||
		(a == models.StanceRefutes && b == models.StanceSupports)
}

// preferByAuthority applies the static source-type ranking. It returns "a"
// or "b" for a strict winner and "" when undecidable.
func preferByAuthority(a, b models.Claim) string {
	sa := a.Source.Type.AuthorityScore()
	sb := b.Source.Type.AuthorityScore()
	switch {
	case sa > sb:
		return "a"
	case sb > sa:
		return "b"
	default:
		return ""
	}
}

// normalizeTopic canonicalizes a topic string for index matching.
func normalizeTopic(topic string) string {
	topic = strings.ToLower(strings.TrimSpace(topic))
	topic = strings.TrimRight(topic, "?.! ")
	return strings.Join(strings.Fields(topic), " ")
}
