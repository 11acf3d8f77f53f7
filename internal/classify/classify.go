// Package classify sizes research queries: it maps a raw query to a query
// type, a complexity tier, a bounded worker count, and an output format hint.
package classify

import (
	"strings"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// technicalKeywords are words that indicate a technical query about code,
// APIs, libraries, or architecture.
var technicalKeywords = []string{
	"api",
	"library",
	"framework",
	"sdk",
	"code",
	"implementation",
	"architecture",
	"protocol",
	"schema",
	"endpoint",
	"compiler",
	"runtime",
	"database",
	"migration",
	"deploy",
	"bug",
	"performance",
	"benchmark",
}

// domainKeywords are words that indicate a domain query about markets,
// trends, concepts, or comparisons.
var domainKeywords = []string{
	"market",
	"trend",
	"industry",
	"adoption",
	"landscape",
	"ecosystem",
	"concept",
	"history",
	"comparison",
	"compare",
	"versus",
	"pros and cons",
	"best practices",
	"opinion",
	"community",
	"pricing",
}

// comparisonSignals widen scope: the query asks for several things to be
// weighed against each other.
var comparisonSignals = []string{
	" vs ",
	" vs. ",
	"versus",
	"compare",
	"comparison",
	"difference between",
	"trade-off",
	"tradeoff",
	"pros and cons",
	"better than",
	"alternatives",
}

// breadthSignals indicate a multi-faceted or cross-domain query.
var breadthSignals = []string{
	"landscape",
	"ecosystem",
	"end to end",
	"end-to-end",
	"full picture",
	"deep dive",
	"comprehensive",
	"everything about",
	"state of",
	"survey",
	"across",
}

// Classifier maps raw queries to Classifications using static keyword
// tables. The zero value is not usable; use New.
type Classifier struct {
	technical  []string
	domain     []string
	comparison []string
	breadth    []string
}

// New creates a Classifier with the default keyword tables.
func New() *Classifier {
	return &Classifier{
		technical:  append([]string{}, technicalKeywords...),
		domain:     append([]string{}, domainKeywords...),
		comparison: append([]string{}, comparisonSignals...),
		breadth:    append([]string{}, breadthSignals...),
	}
}

// Classify analyzes a query and returns its Classification. It returns a
// *ClassificationError for empty or blank queries; no other input fails.
//
// The rules are evaluated in priority order:
//  1. query type from technical/domain keyword presence (both -> hybrid)
//  2. complexity from scope signals (comparisons, clause count, breadth)
//  3. worker count from the complexity range, tie-broken toward the low
//     bound so ambiguous queries get the cheaper run
//  4. format hint: brief iff simple
func (c *Classifier) Classify(query string) (models.Classification, error) {
	if strings.TrimSpace(query) == "" {
		return models.Classification{}, &ClassificationError{Query: query, Reason: "query is empty"}
	}

	lower := strings.ToLower(query)

	queryType := c.detectType(lower)
	complexity := c.detectComplexity(lower, queryType)
	workers := c.workerCount(lower, complexity, queryType)

	hint := models.FormatReport
	if complexity == models.ComplexitySimple {
		hint = models.FormatBrief
	}

	return models.Classification{
		QueryType:   queryType,
		Complexity:  complexity,
		WorkerCount: workers,
		FormatHint:  hint,
	}, nil
}

// detectType checks the keyword tables for technical and domain signals.
func (c *Classifier) detectType(lower string) models.QueryType {
	technical := containsAny(lower, c.technical)
	domain := containsAny(lower, c.domain)

	switch {
	case technical && domain:
		return models.QueryTypeHybrid
	case technical:
		return models.QueryTypeTechnical
	default:
		// Queries with no recognizable technical signal route to general
		// semantic research.
		return models.QueryTypeDomain
	}
}

// detectComplexity scores scope signals and maps the score to a tier.
// A single narrow concept scores zero; comparisons and extra clauses add
// one point each; breadth signals and cross-domain queries add two.
func (c *Classifier) detectComplexity(lower string, queryType models.QueryType) models.Complexity {
	score := 0

	if containsAny(lower, c.comparison) {
		score++
	}
	if n := clauseCount(lower); n > 1 {
		score += n - 1
	}
	score += 2 * matchCount(lower, c.breadth)
	if queryType == models.QueryTypeHybrid {
		score += 2
	}

	switch {
	case score == 0:
		return models.ComplexitySimple
	case score <= 2:
		return models.ComplexityModerate
	default:
		return models.ComplexityComplex
	}
}

// workerCount picks a count inside the complexity tier's range. Ambiguous
// queries stay at the low bound; only an explicit comparison or a hybrid
// query earns the extra worker.
func (c *Classifier) workerCount(lower string, complexity models.Complexity, queryType models.QueryType) int {
	lo, hi := complexity.WorkerRange()

	n := lo
	if containsAny(lower, c.comparison) || queryType == models.QueryTypeHybrid {
		n++
	}
	if n > hi {
		n = hi
	}
	return n
}

// clauseCount approximates how many distinct asks the query carries by
// counting coordinating separators.
func clauseCount(lower string) int {
	count := 1
	for _, sep := range []string{" and ", ", ", "; ", " also ", " as well as ", " plus "} {
		count += strings.Count(lower, sep)
	}
	// Each extra question is its own ask.
	if q := strings.Count(lower, "?"); q > 1 {
		count += q - 1
	}
	return count
}

// matchCount returns how many of the keywords appear in the lowercased text.
func matchCount(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// containsAny reports whether any keyword appears in the lowercased text.
func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classify is a convenience function that classifies a query using the
// default keyword tables.
func Classify(query string) (models.Classification, error) {
	return New().Classify(query)
}
