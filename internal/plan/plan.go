// Package plan decomposes a classified query into a fixed-size set of
// independent research threads, each routed to a primary capability.
package plan

import (
	"fmt"
	"strings"

	"github.com/surveyorhq/surveyor/internal/source"
	"github.com/surveyorhq/surveyor/pkg/models"
)

// angle is one research perspective a thread can take on a query. Angles
// carry no data dependencies on each other, which is what keeps threads
// independently researchable.
type angle struct {
	slug     string
	focus    string
	signal   source.Signal
	question string
}

// technicalAngles are the perspectives for technical queries, in priority
// order.
var technicalAngles = []angle{
	{"core-docs", "Core concepts and official documentation", source.SignalConcept,
		"What do the official docs and specifications say about: %s"},
	{"implementation", "Implementation details, APIs, and code examples", source.SignalCode,
		"How is this implemented in practice, with code or API examples: %s"},
	{"known-issues", "Known issues, limitations, and workarounds", source.SignalRecent,
		"What known issues, limitations, or workarounds exist for: %s"},
	{"operations", "Performance and operational behavior", source.SignalCode,
		"How does this behave operationally (performance, scaling, failure modes): %s"},
	{"tutorials", "Tutorials, talks, and worked examples", source.SignalTutorial,
		"What tutorials, talks, or worked examples cover: %s"},
	{"recent-changes", "Recent releases and changes", source.SignalRecent,
		"What changed recently (releases, deprecations, announcements) about: %s"},
}

// domainAngles are the perspectives for domain queries, in priority order.
var domainAngles = []angle{
	{"background", "Background and definitions", source.SignalConcept,
		"What background and definitions frame: %s"},
	{"landscape", "Current landscape and notable players", source.SignalRecent,
		"What does the current landscape look like for: %s"},
	{"comparisons", "Comparisons and alternatives", source.SignalConcept,
		"What comparisons and alternatives matter for: %s"},
	{"community", "Community perspective and practitioner opinion", source.SignalConcept,
		"What do practitioners and the community say about: %s"},
	{"recent-news", "Recent developments and news", source.SignalRecent,
		"What recent developments or news affect: %s"},
	{"adoption", "Practical adoption guidance", source.SignalTutorial,
		"What practical guidance exists for adopting: %s"},
}

// Builder decomposes queries into thread specs using the injected routing
// table.
type Builder struct {
	routing source.RoutingTable
}

// NewBuilder creates a Builder. A nil routing table uses the defaults.
func NewBuilder(routing source.RoutingTable) *Builder {
	if routing == nil {
		routing = source.DefaultRouting()
	}
	return &Builder{routing: routing}
}

// Build decomposes the query into exactly cls.WorkerCount independent
// threads. If the decomposition yields more candidate threads than the
// worker count allows, the overflow threads are dropped and their questions
// merged into the kept threads round-robin; this never fails the run.
func (b *Builder) Build(runID, query string, cls models.Classification) (*models.Plan, error) {
	if !cls.Valid() {
		return nil, fmt.Errorf("build plan: invalid classification %+v", cls)
	}

	candidates := b.candidates(query, cls)

	threads := candidates
	if len(candidates) > cls.WorkerCount {
		threads = clampAndMerge(candidates, cls.WorkerCount)
	}

	return &models.Plan{
		RunID:          runID,
		Query:          query,
		Classification: cls,
		Threads:        threads,
	}, nil
}

// candidates produces the raw thread list before clamping: one thread per
// angle up to the worker count, plus one direct-fetch thread per URL found
// in the query.
func (b *Builder) candidates(query string, cls models.Classification) []models.ThreadSpec {
	angles := anglesFor(cls.QueryType)

	var threads []models.ThreadSpec
	for i := 0; i < cls.WorkerCount && i < len(angles); i++ {
		a := angles[i]
		threads = append(threads, models.ThreadSpec{
			ID:                fmt.Sprintf("%02d-%s", len(threads)+1, a.slug),
			Focus:             a.focus,
			PrimaryCapability: b.routing.Capability(a.signal),
			Questions:         []string{fmt.Sprintf(a.question, query)},
		})
	}

	for _, u := range extractURLs(query) {
		threads = append(threads, models.ThreadSpec{
			ID:                fmt.Sprintf("%02d-source-review", len(threads)+1),
			Focus:             "Direct review of a referenced source",
			PrimaryCapability: b.routing.Capability(source.SignalURL),
			Questions:         []string{u},
		})
	}

	return threads
}

// anglesFor returns the angle table for a query type. Hybrid queries
// interleave technical and domain perspectives.
func anglesFor(queryType models.QueryType) []angle {
	switch queryType {
	case models.QueryTypeTechnical:
		return technicalAngles
	case models.QueryTypeDomain:
		return domainAngles
	default:
		interleaved := make([]angle, 0, len(technicalAngles)+len(domainAngles))
		for i := 0; i < len(technicalAngles) || i < len(domainAngles); i++ {
			if i < len(technicalAngles) {
				interleaved = append(interleaved, technicalAngles[i])
			}
			if i < len(domainAngles) {
				interleaved = append(interleaved, domainAngles[i])
			}
		}
		return interleaved
	}
}

// clampAndMerge keeps the first n threads and folds the questions of the
// overflow threads into the kept ones round-robin.
func clampAndMerge(threads []models.ThreadSpec, n int) []models.ThreadSpec {
	kept := make([]models.ThreadSpec, n)
	copy(kept, threads[:n])

	for i, overflow := range threads[n:] {
		target := &kept[i%n]
		target.Questions = append(target.Questions, overflow.Questions...)
	}
	return kept
}

// extractURLs pulls explicit http(s) URLs out of the query text.
func extractURLs(query string) []string {
	var urls []string
	for _, word := range strings.Fields(query) {
		cleaned := strings.TrimRight(word, ",;:\"'`()[]{}!")
		if strings.HasPrefix(cleaned, "http://") || strings.HasPrefix(cleaned, "https://") {
			urls = append(urls, cleaned)
		}
	}
	return urls
}
