package orchestrator

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// PoolConfig contains configuration options for the RunPool.
type PoolConfig struct {
	// Required is the base orchestrator configuration shared by every run.
	Required RequiredConfig
	// Options are applied to every orchestrator the pool creates.
	Options []Option
}

// RunPool manages multiple concurrent research runs. Each submitted query
// gets its own orchestrator; events from all of them are aggregated onto a
// single channel.
type RunPool struct {
	cfg PoolConfig

	// orchestrators tracks running orchestrators by handle ID
	orchestrators map[string]*Orchestrator
	mu            sync.RWMutex

	// events aggregates events from all orchestrators
	events chan Event

	// ctx and cancel for pool lifecycle
	ctx    context.Context
	cancel context.CancelFunc

	// wg tracks running orchestrators
	wg sync.WaitGroup

	// stopOnce makes Stop safe to call from both the interrupt path and
	// the normal teardown path.
	stopOnce sync.Once
}

// NewRunPool creates a new RunPool.
func NewRunPool(cfg PoolConfig) *RunPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &RunPool{
		cfg:           cfg,
		orchestrators: make(map[string]*Orchestrator),
		events:        make(chan Event, defaultEventBuffer),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Submit creates and starts a new research run for the given query.
// Returns a handle ID for the run.
func (p *RunPool) Submit(query string) (string, error) {
	handleID := uuid.New().String()[:8]

	orch, err := NewOrchestrator(p.cfg.Required, p.cfg.Options...)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.orchestrators[handleID] = orch
	p.mu.Unlock()

	p.wg.Add(1)
	go p.forwardEvents(orch)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if _, err := orch.Run(p.ctx, query); err != nil {
			log.Printf("[pool] run %s failed: %v", handleID, err)
		}
		orch.Stop()

		p.mu.Lock()
		delete(p.orchestrators, handleID)
		p.mu.Unlock()
	}()

	return handleID, nil
}

// forwardEvents forwards events from an orchestrator to the pool's channel.
// It exits once the orchestrator's channel closes, which Submit guarantees
// happens after its run returns.
func (p *RunPool) forwardEvents(orch *Orchestrator) {
	defer p.wg.Done()
	for event := range orch.Events() {
		select {
		case p.events <- event:
		case <-p.ctx.Done():
			return
		}
	}
}

// Events returns the channel for receiving aggregated events from all runs.
func (p *RunPool) Events() <-chan Event {
	return p.events
}

// Stop cancels all runs and waits for them to complete. Calling it more
// than once is safe; later calls wait for the first to finish.
func (p *RunPool) Stop() error {
	p.stopOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		close(p.events)
	})
	return nil
}

// Count returns the number of running orchestrators.
func (p *RunPool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.orchestrators)
}

// DroppedEventCount returns the total dropped events across all runs.
func (p *RunPool) DroppedEventCount() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var total uint64
	for _, orch := range p.orchestrators {
		total += orch.emitter.DroppedCount()
	}
	return total
}
