package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/surveyorhq/surveyor/internal/classify"
	"github.com/surveyorhq/surveyor/internal/plan"
	"github.com/surveyorhq/surveyor/internal/source"
	"github.com/surveyorhq/surveyor/internal/state"
	"github.com/surveyorhq/surveyor/internal/store"
	"github.com/surveyorhq/surveyor/internal/synthesis"
	"github.com/surveyorhq/surveyor/pkg/models"
)

// defaultEventBuffer sizes the event channel. A full buffer drops events
// rather than blocking the run.
const defaultEventBuffer = 100

// Orchestrator coordinates the entire workflow from query to final output.
// It wires together: classifier -> plan builder -> dispatcher -> synthesizer.
type Orchestrator struct {
	registry   *source.Registry
	dataDir    string
	routing    source.RoutingTable
	classifier *classify.Classifier
	builder    *plan.Builder
	synth      *synthesis.Synthesizer

	workerTimeout   time.Duration
	retry           RetryPolicy
	maxDeepenRounds int
	logger          *DebugLogger
	stateDB         state.StateStore

	emitter *EventEmitter

	// mu protects stopped.
	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates an Orchestrator with required configuration and options.
func NewOrchestrator(required RequiredConfig, opts ...Option) (*Orchestrator, error) {
	if required.Registry == nil {
		return nil, fmt.Errorf("orchestrator: registry is required")
	}
	if required.DataDir == "" {
		return nil, fmt.Errorf("orchestrator: data directory is required")
	}

	options := &orchestratorOptions{
		routing:     source.DefaultRouting(),
		retry:       DefaultRetryPolicy(),
		eventBuffer: defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.classifier == nil {
		options.classifier = classify.New()
	}
	if options.builder == nil {
		options.builder = plan.NewBuilder(options.routing)
	}
	if options.logger == nil {
		options.logger = NopLogger()
	}

	return &Orchestrator{
		registry:        required.Registry,
		dataDir:         required.DataDir,
		routing:         options.routing,
		classifier:      options.classifier,
		builder:         options.builder,
		synth:           synthesis.New(),
		workerTimeout:   options.workerTimeout,
		retry:           options.retry,
		maxDeepenRounds: options.maxDeepenRounds,
		logger:          options.logger,
		stateDB:         options.stateDB,
		emitter:         NewEventEmitter(options.eventBuffer),
	}, nil
}

// Events returns a read-only channel of run events.
// Subscribers (the TUI, the watch command) receive updates from it.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// Stop closes the event channel. Call once, after Run has returned.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return
	}
	o.stopped = true
	o.emitter.Close()
}

// Run executes one research run end to end: classify the query, build the
// plan, dispatch one worker per thread, and synthesize whatever findings
// exist once every worker is terminal. Classification, plan write, and
// final-output write failures abort the run; individual worker failures
// do not.
func (o *Orchestrator) Run(ctx context.Context, query string) (*models.FinalOutput, error) {
	runID := uuid.New().String()[:8]

	cls, err := o.classifier.Classify(query)
	if err != nil {
		return nil, err
	}

	o.emitter.Emit(Event{
		Type:    EventRunStarted,
		RunID:   runID,
		Message: fmt.Sprintf("%s/%s query, %d workers", cls.QueryType, cls.Complexity, cls.WorkerCount),
	})
	o.logger.Log("[%s] classified %q as %s/%s, %d workers", runID, query, cls.QueryType, cls.Complexity, cls.WorkerCount)

	researchPlan, err := o.builder.Build(runID, query, cls)
	if err != nil {
		o.failRun(runID, err)
		return nil, err
	}

	runStore, err := store.NewRunStore(o.dataDir, runID)
	if err != nil {
		o.failRun(runID, err)
		return nil, err
	}

	if err := runStore.WritePlan(researchPlan); err != nil {
		o.failRun(runID, err)
		return nil, err
	}
	o.emitter.Emit(Event{Type: EventPlanWritten, RunID: runID, Message: fmt.Sprintf("%d threads", len(researchPlan.Threads))})

	o.persistRunStart(runID, query, cls, researchPlan)

	dispatcher := NewDispatcher(DispatcherConfig{
		RunID:           runID,
		Registry:        o.registry,
		Routing:         o.routing,
		Store:           runStore,
		WorkerTimeout:   o.workerTimeout,
		Retry:           o.retry,
		MaxDeepenRounds: o.maxDeepenRounds,
		Logger:          o.logger,
		Emitter:         o.emitter,
	})

	statuses, fatalErr := dispatcher.Dispatch(ctx, researchPlan.Threads)
	o.persistThreadStatuses(runID, statuses)
	if fatalErr != nil {
		o.failRun(runID, fatalErr)
		return nil, fatalErr
	}

	o.emitter.Emit(Event{Type: EventSynthesisStarted, RunID: runID})

	findings, err := runStore.Findings(researchPlan.ThreadIDs())
	if err != nil {
		o.failRun(runID, err)
		return nil, err
	}

	output, err := o.synth.Synthesize(synthesis.Input{
		Plan:     researchPlan,
		Statuses: statuses,
		Findings: findings,
	})
	if err != nil {
		o.failRun(runID, err)
		return nil, err
	}

	if err := runStore.WriteFinalOutput(output); err != nil {
		o.failRun(runID, err)
		return nil, err
	}

	o.emitter.Emit(Event{Type: EventFinalOutputWritten, RunID: runID, Format: output.Format})
	o.emitter.Emit(Event{Type: EventRunDone, RunID: runID, Format: output.Format})
	o.logger.Log("[%s] run done: format=%s, %d findings, %d missing threads",
		runID, output.Format, len(findings), len(output.MissingThreads))
	o.persistRunDone(runID, output)

	return output, nil
}

// failRun emits the failure event and records it in the state database.
func (o *Orchestrator) failRun(runID string, err error) {
	o.logger.Log("[%s] run failed: %v", runID, err)
	o.emitter.Emit(Event{Type: EventRunFailed, RunID: runID, Error: err})
	if o.stateDB != nil {
		if dbErr := o.stateDB.CompleteRun(runID, state.RunFailed, ""); dbErr != nil {
			o.logger.Log("[%s] state update failed: %v", runID, dbErr)
		}
	}
}

// persistRunStart records the run and its threads in the state database.
// State persistence is best effort; the filesystem artifacts are the source
// of truth.
func (o *Orchestrator) persistRunStart(runID, query string, cls models.Classification, p *models.Plan) {
	if o.stateDB == nil {
		return
	}

	run := &state.Run{
		ID:          runID,
		Query:       query,
		QueryType:   string(cls.QueryType),
		Complexity:  string(cls.Complexity),
		WorkerCount: cls.WorkerCount,
		Status:      state.RunActive,
		StartedAt:   time.Now(),
	}
	if err := o.stateDB.CreateRun(run); err != nil {
		o.logger.Log("[%s] state: create run failed: %v", runID, err)
		return
	}

	for _, spec := range p.Threads {
		thread := &state.Thread{
			RunID:      runID,
			ThreadID:   spec.ID,
			Focus:      spec.Focus,
			Capability: spec.PrimaryCapability,
			Status:     state.ThreadRunning,
		}
		if err := o.stateDB.CreateThread(thread); err != nil {
			o.logger.Log("[%s] state: create thread %s failed: %v", runID, spec.ID, err)
		}
	}
}

// persistThreadStatuses records each worker's terminal status.
func (o *Orchestrator) persistThreadStatuses(runID string, statuses map[string]models.TerminalStatus) {
	if o.stateDB == nil {
		return
	}
	for threadID, status := range statuses {
		if err := o.stateDB.UpdateThreadStatus(runID, threadID, threadState(status.State), status.Reason); err != nil {
			o.logger.Log("[%s] state: update thread %s failed: %v", runID, threadID, err)
		}
	}
}

// persistRunDone marks the run completed.
func (o *Orchestrator) persistRunDone(runID string, output *models.FinalOutput) {
	if o.stateDB == nil {
		return
	}
	if err := o.stateDB.CompleteRun(runID, state.RunCompleted, string(output.Format)); err != nil {
		o.logger.Log("[%s] state: complete run failed: %v", runID, err)
	}
}

// threadState maps a terminal status onto the persisted thread status.
func threadState(s models.TerminalState) state.ThreadStatus {
	switch s {
	case models.TerminalDone:
		return state.ThreadDone
	case models.TerminalTimedOut:
		return state.ThreadTimedOut
	default:
		return state.ThreadFailed
	}
}
