package models

// Result is a single item returned by a source tool.
type Result struct {
	// Title is the human-readable name of the result.
	Title string `json:"title"`
	// URL is the location of the result, if any.
	URL string `json:"url,omitempty"`
	// Snippet is the extracted text of the result.
	Snippet string `json:"snippet,omitempty"`
	// Type categorizes the result's source for authority ranking.
	Type SourceType `json:"type"`
}

// ResultSet is what a source tool returns for one query.
type ResultSet struct {
	// Query is the query that produced these results.
	Query string `json:"query"`
	// Capability names the source tool that answered.
	Capability string `json:"capability"`
	// Results are the returned items, best first.
	Results []Result `json:"results"`
}

// Empty returns true if the set carries no results.
func (r *ResultSet) Empty() bool {
	return r == nil || len(r.Results) == 0
}
