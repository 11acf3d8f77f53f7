package models

// ThreadSpec describes one independently researchable sub-task of a query.
// Specs are created by the plan builder before any worker starts and are
// read-only for the lifetime of the run.
type ThreadSpec struct {
	// ID is the unique slug identifying this thread within the run.
	ID string `json:"id"`
	// Focus is the one-line statement of what this thread investigates.
	Focus string `json:"focus"`
	// PrimaryCapability names the source tool this thread queries first.
	PrimaryCapability string `json:"primary_capability"`
	// Questions are the concrete questions this thread must answer, in order.
	Questions []string `json:"questions"`
}

// Plan is the persisted decomposition of a query: the classification that
// sized it plus the full ordered thread list.
type Plan struct {
	// RunID is the identifier of the run this plan belongs to.
	RunID string `json:"run_id"`
	// Query is the original research query.
	Query string `json:"query"`
	// Classification is the sizing decision for the run.
	Classification Classification `json:"classification"`
	// Threads is the ordered list of thread specs, length == WorkerCount.
	Threads []ThreadSpec `json:"threads"`
}

// ThreadIDs returns the thread IDs in plan order.
func (p *Plan) ThreadIDs() []string {
	ids := make([]string, len(p.Threads))
	for i, t := range p.Threads {
		ids[i] = t.ID
	}
	return ids
}
