package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/surveyorhq/surveyor/internal/source"
	"github.com/surveyorhq/surveyor/internal/store"
	"github.com/surveyorhq/surveyor/pkg/models"
)

// WorkerState is a research worker's position in its state machine.
type WorkerState string

const (
	// StateSearching issues the next question to the primary capability.
	StateSearching WorkerState = "searching"
	// StateEvaluating applies the completeness heuristic to the evidence.
	StateEvaluating WorkerState = "evaluating"
	// StateDeepening issues a refined follow-up query.
	StateDeepening WorkerState = "deepening"
	// StateFinalizing composes and persists the finding.
	StateFinalizing WorkerState = "finalizing"
	// StateDone is terminal.
	StateDone WorkerState = "done"
)

// Default worker bounds. Three deepening rounds keeps the open-ended
// "search until satisfied" loop from running away.
const (
	defaultMaxDeepenRounds = 3
	defaultMinResults      = 3
	maxSummaryLen          = 400
	maxClaimsPerRound      = 3
)

// WorkerConfig contains everything a research worker needs. The worker only
// ever touches its own thread's store key; the thread spec and routing
// table are shared read-only state.
type WorkerConfig struct {
	// RunID is the ID of the run this worker belongs to.
	RunID string
	// Spec is the thread this worker researches. Never mutated.
	Spec models.ThreadSpec
	// Registry resolves capability names to source tools.
	Registry *source.Registry
	// Routing resolves fallback signals when the primary capability runs dry.
	Routing source.RoutingTable
	// Store is the findings store for this run.
	Store *store.RunStore
	// Retry bounds capability call retries. Zero value uses the default.
	Retry RetryPolicy
	// MaxDeepenRounds bounds deepening. Zero uses the default of 3.
	MaxDeepenRounds int
	// MinResults is the completeness threshold. Zero uses the default of 3.
	MinResults int
	// Logger receives debug lines. May be a no-op logger.
	Logger *DebugLogger
	// Emitter receives progress events. May be nil.
	Emitter *EventEmitter
}

// ResearchWorker runs one thread's state machine:
// Searching -> Evaluating -> {Deepening | Finalizing} -> Done.
// Its only observable side effect is writing its own finding.
type ResearchWorker struct {
	cfg WorkerConfig

	state    WorkerState
	pending  []string
	evidence []*models.ResultSet
	gaps     []string
	rounds   int
}

// NewResearchWorker creates a worker for a thread spec.
func NewResearchWorker(cfg WorkerConfig) *ResearchWorker {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.MaxDeepenRounds == 0 {
		cfg.MaxDeepenRounds = defaultMaxDeepenRounds
	}
	if cfg.MinResults == 0 {
		cfg.MinResults = defaultMinResults
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}

	return &ResearchWorker{
		cfg:     cfg,
		state:   StateSearching,
		pending: append([]string{}, cfg.Spec.Questions...),
	}
}

// State returns the worker's current state.
func (w *ResearchWorker) State() WorkerState {
	return w.state
}

// Run drives the state machine to completion. It returns nil once the
// finding is written. A context error means the worker's deadline fired
// before it could finalize; a storage error means the run must abort.
// Capability failures never surface here: they become documented gaps in a
// partial finding.
func (w *ResearchWorker) Run(ctx context.Context) error {
	var lastSet *models.ResultSet

	for {
		switch w.state {
		case StateSearching:
			query := w.nextQuestion()
			rs, err := w.search(ctx, w.cfg.Spec.PrimaryCapability, query)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.recordGap(query, err)
				w.state = StateFinalizing
				continue
			}
			lastSet = rs
			w.state = StateEvaluating

		case StateEvaluating:
			if w.satisfied(lastSet) {
				w.state = StateFinalizing
			} else {
				w.state = StateDeepening
			}

		case StateDeepening:
			w.rounds++
			query, capability := w.refine(lastSet)
			w.emit(Event{
				Type:     EventWorkerDeepening,
				RunID:    w.cfg.RunID,
				ThreadID: w.cfg.Spec.ID,
				Focus:    w.cfg.Spec.Focus,
				Message:  fmt.Sprintf("deepening round %d via %s", w.rounds, capability),
			})
			w.cfg.Logger.Log("[%s] deepening round %d: %q via %s", w.cfg.Spec.ID, w.rounds, query, capability)

			rs, err := w.search(ctx, capability, query)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.recordGap(query, err)
				w.state = StateFinalizing
				continue
			}
			lastSet = rs
			w.state = StateEvaluating

		case StateFinalizing:
			finding := w.compose()
			if err := w.cfg.Store.WriteFinding(finding); err != nil {
				return err
			}
			w.state = StateDone
			w.emit(Event{
				Type:     EventFindingWritten,
				RunID:    w.cfg.RunID,
				ThreadID: w.cfg.Spec.ID,
				Focus:    w.cfg.Spec.Focus,
			})
			w.cfg.Logger.Log("[%s] finding written (%d rounds, %d gaps)", w.cfg.Spec.ID, len(w.evidence), len(w.gaps))
			return nil

		case StateDone:
			return nil
		}
	}
}

// search resolves the capability and queries it under the retry policy.
// Results are appended to the worker's evidence.
func (w *ResearchWorker) search(ctx context.Context, capability, query string) (*models.ResultSet, error) {
	tool, err := w.cfg.Registry.Get(capability)
	if err != nil {
		return nil, err
	}

	var rs *models.ResultSet
	err = w.cfg.Retry.Do(ctx, func() error {
		var searchErr error
		rs, searchErr = tool.Search(ctx, query)
		return searchErr
	})
	if err != nil {
		return nil, err
	}

	w.evidence = append(w.evidence, rs)
	return rs, nil
}

// satisfied is the completeness heuristic: stop when the deepening budget is
// spent, or when every question has been asked and the evidence is thick
// enough. A thin or empty last round sends the worker back to deepen.
func (w *ResearchWorker) satisfied(lastSet *models.ResultSet) bool {
	if w.rounds >= w.cfg.MaxDeepenRounds {
		return true
	}
	if len(w.pending) > 0 {
		return false
	}
	if lastSet.Empty() {
		return false
	}
	return w.totalResults() >= w.cfg.MinResults
}

// refine picks the next deepening query and capability. Remaining questions
// go first; after that the focus is re-probed with a broadened query. An
// empty last round falls back to the live web-search capability, since the
// primary's written sources were evidently insufficient.
func (w *ResearchWorker) refine(lastSet *models.ResultSet) (string, string) {
	capability := w.cfg.Spec.PrimaryCapability
	if lastSet.Empty() {
		capability = w.cfg.Routing.Capability(source.SignalRecent)
	}

	if len(w.pending) > 0 {
		return w.popPending(), capability
	}
	return fmt.Sprintf("%s: details, caveats, and alternatives", w.cfg.Spec.Focus), capability
}

// nextQuestion pops the next pending question, falling back to the focus.
func (w *ResearchWorker) nextQuestion() string {
	if len(w.pending) > 0 {
		return w.popPending()
	}
	return w.cfg.Spec.Focus
}

func (w *ResearchWorker) popPending() string {
	q := w.pending[0]
	w.pending = w.pending[1:]
	return q
}

func (w *ResearchWorker) totalResults() int {
	n := 0
	for _, rs := range w.evidence {
		n += len(rs.Results)
	}
	return n
}

// recordGap documents a capability failure. The worker never aborts on
// these; it finalizes a partial finding instead.
func (w *ResearchWorker) recordGap(query string, err error) {
	w.gaps = append(w.gaps, fmt.Sprintf("could not research %q: %v", query, err))
	w.cfg.Logger.Log("[%s] gap recorded: %q: %v", w.cfg.Spec.ID, query, err)
}

// compose builds the finding from the accumulated evidence. Questions never
// asked become gaps; an empty evidence pile becomes an explicit gap rather
// than a fabricated answer.
func (w *ResearchWorker) compose() *models.Finding {
	finding := &models.Finding{
		ThreadID:     w.cfg.Spec.ID,
		SearchRounds: len(w.evidence),
		Gaps:         append([]string{}, w.gaps...),
		CompletedAt:  time.Now(),
	}

	for _, q := range w.pending {
		finding.Gaps = append(finding.Gaps, fmt.Sprintf("question %q was never researched", q))
	}

	seenSources := make(map[string]bool)
	for _, rs := range w.evidence {
		for i, result := range rs.Results {
			src := models.Source{
				Title:      result.Title,
				URL:        result.URL,
				Type:       result.Type,
				Capability: rs.Capability,
			}
			key := src.URL
			if key == "" {
				key = src.Title
			}
			if key != "" && !seenSources[key] {
				seenSources[key] = true
				finding.SourcesConsulted = append(finding.SourcesConsulted, src)
			}

			if i < maxClaimsPerRound && result.Snippet != "" {
				finding.Claims = append(finding.Claims, models.Claim{
					Topic:     rs.Query,
					Statement: firstSentence(result.Snippet),
					Stance:    detectStance(result.Snippet),
					Source:    src,
				})
			}
		}
	}

	finding.Summary = w.summarize()
	if len(finding.SourcesConsulted) == 0 {
		finding.Gaps = append(finding.Gaps, fmt.Sprintf("no usable sources found for %q", w.cfg.Spec.Focus))
	}
	if len(finding.Gaps) > 0 {
		finding.SuggestedFollowUps = append(finding.SuggestedFollowUps,
			fmt.Sprintf("Re-run research on %q with different capabilities", w.cfg.Spec.Focus))
	}

	return finding
}

// summarize condenses the best snippets into the finding summary.
func (w *ResearchWorker) summarize() string {
	var parts []string
	for _, rs := range w.evidence {
		for _, result := range rs.Results {
			if result.Snippet == "" {
				continue
			}
			parts = append(parts, firstSentence(result.Snippet))
			break
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("No usable results were retrieved for %q.", w.cfg.Spec.Focus)
	}

	summary := strings.Join(parts, " ")
	if len(summary) > maxSummaryLen {
		// Cut on a rune boundary so a multi-byte character is never split.
		cut := maxSummaryLen
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
		if idx := strings.LastIndex(summary, " "); idx > 0 {
			summary = summary[:idx]
		}
		summary += "…"
	}
	return summary
}

// emit sends an event if an emitter is wired.
func (w *ResearchWorker) emit(event Event) {
	if w.cfg.Emitter != nil {
		w.cfg.Emitter.Emit(event)
	}
}

// firstSentence trims text to its first sentence.
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if idx := strings.Index(text, sep); idx > 0 {
			return strings.TrimSpace(text[:idx+1])
		}
	}
	return text
}

// refuteMarkers are phrases that flip a claim's stance to refuting.
var refuteMarkers = []string{
	"not ",
	"no longer",
	"never ",
	"doesn't",
	"does not",
	"isn't",
	"is not",
	"deprecated",
	"unsupported",
	"removed",
}

// detectStance derives a coarse stance from snippet text so the synthesizer
// can spot mutually exclusive claims.
func detectStance(snippet string) models.Stance {
	lower := strings.ToLower(snippet)
	for _, marker := range refuteMarkers {
		if strings.Contains(lower, marker) {
			return models.StanceRefutes
		}
	}
	return models.StanceSupports
}
