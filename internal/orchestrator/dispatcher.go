package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/surveyorhq/surveyor/internal/source"
	"github.com/surveyorhq/surveyor/internal/store"
	"github.com/surveyorhq/surveyor/pkg/models"
)

// defaultWorkerTimeout is the concrete per-worker deadline. Workers that
// exceed it are reported timed out; their siblings keep running.
const defaultWorkerTimeout = 2 * time.Minute

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// RunID is the ID of the run being dispatched.
	RunID string
	// Registry resolves capability names to source tools.
	Registry *source.Registry
	// Routing is the signal-to-capability table shared with workers.
	Routing source.RoutingTable
	// Store is the findings store for this run.
	Store *store.RunStore
	// WorkerTimeout is the per-worker deadline. Zero uses the default.
	WorkerTimeout time.Duration
	// Retry bounds capability retries inside each worker.
	Retry RetryPolicy
	// MaxDeepenRounds bounds each worker's deepening loop.
	MaxDeepenRounds int
	// Logger receives debug lines. May be a no-op logger.
	Logger *DebugLogger
	// Emitter receives worker lifecycle events. May be nil.
	Emitter *EventEmitter
}

// Dispatcher fans out exactly one research worker per thread spec and joins
// them at a barrier. Workers share nothing but the read-only plan and the
// findings store's disjoint keys; one worker's failure never blocks or
// cancels the others.
type Dispatcher struct {
	cfg DispatcherConfig
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.WorkerTimeout <= 0 {
		cfg.WorkerTimeout = defaultWorkerTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}
	return &Dispatcher{cfg: cfg}
}

// Dispatch launches one worker per spec and blocks until every worker is
// terminal. It returns the terminal status map and, separately, a fatal
// error when any worker hit a storage failure; statuses are complete even
// then.
func (d *Dispatcher) Dispatch(ctx context.Context, specs []models.ThreadSpec) (map[string]models.TerminalStatus, error) {
	statuses := make(map[string]models.TerminalStatus, len(specs))
	var statusMu sync.Mutex
	var fatalErr error

	var wg sync.WaitGroup
	for _, spec := range specs {
		wg.Add(1)
		go func(spec models.ThreadSpec) {
			defer wg.Done()

			status := d.runWorker(ctx, spec)

			statusMu.Lock()
			statuses[spec.ID] = status.TerminalStatus
			if status.State == models.TerminalFailed && fatalErr == nil {
				var serr *store.StorageError
				if errors.As(status.err, &serr) {
					fatalErr = status.err
				}
			}
			statusMu.Unlock()
		}(spec)
	}
	wg.Wait()

	return statuses, fatalErr
}

// workerStatus is models.TerminalStatus plus the raw error, kept private so
// fatal storage errors can be told apart from ordinary failures.
type workerStatus struct {
	models.TerminalStatus
	err error
}

// runWorker runs one worker under its own deadline and maps its outcome to
// a terminal status. Panics are contained: a panicking worker is a failed
// worker, not a failed run.
func (d *Dispatcher) runWorker(ctx context.Context, spec models.ThreadSpec) (status workerStatus) {
	defer func() {
		if r := recover(); r != nil {
			d.cfg.Logger.Log("[%s] worker panicked: %v", spec.ID, r)
			status = workerStatus{TerminalStatus: models.TerminalStatus{
				State:  models.TerminalFailed,
				Reason: fmt.Sprintf("worker panicked: %v", r),
			}}
			d.emitTerminal(spec, status.TerminalStatus)
		}
	}()

	d.emit(Event{
		Type:     EventWorkerStarted,
		RunID:    d.cfg.RunID,
		ThreadID: spec.ID,
		Focus:    spec.Focus,
	})
	d.cfg.Logger.Log("[%s] worker started (capability %s)", spec.ID, spec.PrimaryCapability)

	wctx, cancel := context.WithTimeout(ctx, d.cfg.WorkerTimeout)
	defer cancel()

	worker := NewResearchWorker(WorkerConfig{
		RunID:           d.cfg.RunID,
		Spec:            spec,
		Registry:        d.cfg.Registry,
		Routing:         d.cfg.Routing,
		Store:           d.cfg.Store,
		Retry:           d.cfg.Retry,
		MaxDeepenRounds: d.cfg.MaxDeepenRounds,
		Logger:          d.cfg.Logger,
		Emitter:         d.cfg.Emitter,
	})

	err := worker.Run(wctx)
	switch {
	case err == nil:
		status = workerStatus{TerminalStatus: models.TerminalStatus{State: models.TerminalDone}}
	case errors.Is(err, context.DeadlineExceeded):
		status = workerStatus{TerminalStatus: models.TerminalStatus{
			State:  models.TerminalTimedOut,
			Reason: "worker deadline exceeded",
		}, err: err}
	case errors.Is(err, context.Canceled):
		// The parent run context was canceled (interrupt), which is not a
		// per-worker timeout.
		status = workerStatus{TerminalStatus: models.TerminalStatus{
			State:  models.TerminalFailed,
			Reason: "run canceled",
		}, err: err}
	default:
		status = workerStatus{TerminalStatus: models.TerminalStatus{
			State:  models.TerminalFailed,
			Reason: err.Error(),
		}, err: err}
	}

	d.emitTerminal(spec, status.TerminalStatus)
	return status
}

// emitTerminal emits failure events for non-done terminal states.
func (d *Dispatcher) emitTerminal(spec models.ThreadSpec, status models.TerminalStatus) {
	switch status.State {
	case models.TerminalFailed:
		d.emit(Event{
			Type:     EventWorkerFailed,
			RunID:    d.cfg.RunID,
			ThreadID: spec.ID,
			Focus:    spec.Focus,
			Message:  status.Reason,
		})
	case models.TerminalTimedOut:
		d.emit(Event{
			Type:     EventWorkerTimedOut,
			RunID:    d.cfg.RunID,
			ThreadID: spec.ID,
			Focus:    spec.Focus,
		})
	}
}

// emit sends an event if an emitter is wired.
func (d *Dispatcher) emit(event Event) {
	if d.cfg.Emitter != nil {
		d.cfg.Emitter.Emit(event)
	}
}
