package models

import "time"

// Stance is the position a claim takes on its topic. Conflict detection
// treats a supporting and a refuting claim on the same topic as mutually
// exclusive.
type Stance string

const (
	// StanceSupports asserts the topic statement holds.
	StanceSupports Stance = "supports"
	// StanceRefutes asserts the topic statement does not hold.
	StanceRefutes Stance = "refutes"
	// StanceNeutral reports on the topic without taking a position.
	StanceNeutral Stance = "neutral"
)

// Valid returns true if the stance is a known value.
func (s Stance) Valid() bool {
	switch s {
	case StanceSupports, StanceRefutes, StanceNeutral:
		return true
	default:
		return false
	}
}

// Claim is a single assertion extracted by a worker, addressed to one topic.
type Claim struct {
	// Topic is the sub-question this claim addresses.
	Topic string `json:"topic"`
	// Statement is the assertion itself.
	Statement string `json:"statement"`
	// Stance is the claim's position on the topic.
	Stance Stance `json:"stance"`
	// Source identifies where the claim came from.
	Source Source `json:"source"`
}

// SourceType categorizes where evidence came from. It drives the static
// authority ranking used as a secondary conflict signal.
type SourceType string

const (
	// SourcePrimaryDoc is official documentation or a specification.
	SourcePrimaryDoc SourceType = "primary_doc"
	// SourceCode is source code or an API surface read directly.
	SourceCode SourceType = "code"
	// SourceArticle is a published article or write-up.
	SourceArticle SourceType = "article"
	// SourceTranscript is a talk, video, or podcast transcript.
	SourceTranscript SourceType = "transcript"
	// SourceForum is a discussion thread or Q&A post.
	SourceForum SourceType = "forum"
	// SourceUnknown is anything that could not be categorized.
	SourceUnknown SourceType = "unknown"
)

// AuthorityScore returns the static rank of this source type. Higher is more
// authoritative. The ordering prefers specific, primary material.
func (s SourceType) AuthorityScore() int {
	switch s {
	case SourcePrimaryDoc:
		return 5
	case SourceCode:
		return 4
	case SourceArticle:
		return 3
	case SourceTranscript:
		return 2
	case SourceForum:
		return 1
	default:
		return 0
	}
}

// Source identifies a consulted source.
type Source struct {
	// Title is the human-readable name of the source.
	Title string `json:"title"`
	// URL is the location of the source, if any.
	URL string `json:"url,omitempty"`
	// Type categorizes the source for authority ranking.
	Type SourceType `json:"type"`
	// Capability names the source tool that produced this source.
	Capability string `json:"capability,omitempty"`
}

// Finding is the single artifact a worker produces for its thread. It is
// written exactly once, under the thread's own key, and never rewritten.
type Finding struct {
	// ThreadID is the ID of the thread this finding answers.
	ThreadID string `json:"thread_id"`
	// Summary is the worker's condensed answer to its focus.
	Summary string `json:"summary"`
	// Claims are the individual assertions backing the summary.
	Claims []Claim `json:"claims,omitempty"`
	// SourcesConsulted lists every source the worker drew on.
	SourcesConsulted []Source `json:"sources_consulted,omitempty"`
	// Gaps documents sub-questions the worker could not answer and why.
	Gaps []string `json:"gaps,omitempty"`
	// SuggestedFollowUps lists follow-up questions worth a future run.
	SuggestedFollowUps []string `json:"suggested_follow_ups,omitempty"`
	// SearchRounds is how many search/deepen rounds the worker performed.
	SearchRounds int `json:"search_rounds"`
	// CompletedAt is when the worker finalized this finding.
	CompletedAt time.Time `json:"completed_at"`
}

// Partial returns true if the finding documents unanswered gaps.
func (f *Finding) Partial() bool {
	return len(f.Gaps) > 0
}
