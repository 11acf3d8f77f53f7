package models

// QueryType represents the broad category of a research query.
type QueryType string

const (
	// QueryTypeTechnical is for queries about APIs, libraries, code, or architecture.
	QueryTypeTechnical QueryType = "technical"
	// QueryTypeDomain is for queries about markets, trends, concepts, or comparisons.
	QueryTypeDomain QueryType = "domain"
	// QueryTypeHybrid is for queries carrying both technical and domain signals.
	QueryTypeHybrid QueryType = "hybrid"
)

// Valid returns true if the query type is a known value.
func (q QueryType) Valid() bool {
	switch q {
	case QueryTypeTechnical, QueryTypeDomain, QueryTypeHybrid:
		return true
	default:
		return false
	}
}

// Complexity represents how much research scope a query demands.
type Complexity string

const (
	// ComplexitySimple is a single narrow concept.
	ComplexitySimple Complexity = "simple"
	// ComplexityModerate covers several related concepts or some comparison.
	ComplexityModerate Complexity = "moderate"
	// ComplexityComplex is multi-faceted or cross-domain.
	ComplexityComplex Complexity = "complex"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// WorkerRange returns the inclusive [min, max] worker count for this
// complexity tier.
func (c Complexity) WorkerRange() (int, int) {
	switch c {
	case ComplexitySimple:
		return 2, 3
	case ComplexityModerate:
		return 3, 4
	case ComplexityComplex:
		return 5, 6
	default:
		return 2, 3
	}
}

// Format represents the shape of the final output.
type Format string

const (
	// FormatBrief is a short bottom-line-first summary (roughly 200-500 words).
	FormatBrief Format = "brief"
	// FormatReport is a full structured report (roughly 1000-3000 words).
	FormatReport Format = "report"
)

// Valid returns true if the format is a known value.
func (f Format) Valid() bool {
	switch f {
	case FormatBrief, FormatReport:
		return true
	default:
		return false
	}
}

// MinWorkers and MaxWorkers bound the fan-out of any single run.
const (
	MinWorkers = 2
	MaxWorkers = 6
)

// Classification is the sizing decision for a run. It is produced once by
// the classifier and never mutated afterward.
type Classification struct {
	// QueryType is the detected category of the query.
	QueryType QueryType `json:"query_type"`
	// Complexity is the detected scope tier of the query.
	Complexity Complexity `json:"complexity"`
	// WorkerCount is the number of research threads to fan out, always in [2,6].
	WorkerCount int `json:"worker_count"`
	// FormatHint is the suggested output shape. The synthesizer may override it.
	FormatHint Format `json:"format_hint"`
}

// Valid returns true if all fields are known values and the worker count is
// inside the range allowed for the complexity tier.
func (c Classification) Valid() bool {
	if !c.QueryType.Valid() || !c.Complexity.Valid() || !c.FormatHint.Valid() {
		return false
	}
	lo, hi := c.Complexity.WorkerRange()
	return c.WorkerCount >= lo && c.WorkerCount <= hi
}
