package orchestrator

import (
	"time"

	"github.com/surveyorhq/surveyor/internal/classify"
	"github.com/surveyorhq/surveyor/internal/plan"
	"github.com/surveyorhq/surveyor/internal/source"
	"github.com/surveyorhq/surveyor/internal/state"
)

// RequiredConfig contains the minimal required configuration for an Orchestrator.
// All fields are required and have no defaults.
type RequiredConfig struct {
	// Registry resolves capability names to source tools.
	Registry *source.Registry
	// DataDir is the root directory for run artifacts.
	DataDir string
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	routing         source.RoutingTable
	workerTimeout   time.Duration
	retry           RetryPolicy
	maxDeepenRounds int
	logger          *DebugLogger
	stateDB         state.StateStore
	eventBuffer     int

	// Injectable dependencies for testing
	classifier *classify.Classifier
	builder    *plan.Builder
}

// WithRouting sets the signal-to-capability routing table.
func WithRouting(t source.RoutingTable) Option {
	return func(o *orchestratorOptions) { o.routing = t }
}

// WithWorkerTimeout sets the per-worker deadline.
func WithWorkerTimeout(d time.Duration) Option {
	return func(o *orchestratorOptions) { o.workerTimeout = d }
}

// WithRetryPolicy sets the capability retry policy shared by all workers.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *orchestratorOptions) { o.retry = p }
}

// WithMaxDeepenRounds bounds each worker's deepening loop.
func WithMaxDeepenRounds(n int) Option {
	return func(o *orchestratorOptions) { o.maxDeepenRounds = n }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithStateDB sets the database for persisting run and thread state.
// If unset, runs are only recorded as filesystem artifacts.
func WithStateDB(db state.StateStore) Option {
	return func(o *orchestratorOptions) { o.stateDB = db }
}

// WithEventBuffer sets the event channel buffer size.
func WithEventBuffer(n int) Option {
	return func(o *orchestratorOptions) { o.eventBuffer = n }
}

// WithClassifier sets a custom query classifier (mainly for testing).
func WithClassifier(c *classify.Classifier) Option {
	return func(o *orchestratorOptions) { o.classifier = c }
}

// WithPlanBuilder sets a custom plan builder (mainly for testing).
func WithPlanBuilder(b *plan.Builder) Option {
	return func(o *orchestratorOptions) { o.builder = b }
}
