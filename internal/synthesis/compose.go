package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// composeBrief renders the short form: bottom line, key points,
// recommendations, limitations, key sources. Threads appear in plan order.
// Briefs are only composed for conflict-free runs.
func composeBrief(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Brief: %s\n\n", in.Plan.Query)

	b.WriteString("## Bottom line\n\n")
	for _, thread := range in.Plan.Threads {
		f := in.Findings[thread.ID]
		if f == nil || f.Summary == "" {
			continue
		}
		fmt.Fprintf(&b, "%s\n\n", f.Summary)
		break
	}

	b.WriteString("## Key points\n\n")
	for _, thread := range in.Plan.Threads {
		f := in.Findings[thread.ID]
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", thread.Focus, f.Summary)
	}
	b.WriteString("\n")

	b.WriteString("## Recommendations\n\n")
	writeFollowUps(&b, in)

	b.WriteString("## Limitations\n\n")
	writeLimitations(&b, in, nil)

	b.WriteString("## Key sources\n\n")
	writeSources(&b, in)

	return b.String()
}

// composeReport renders the long form: executive summary, background,
// per-topic findings, analysis (including flagged conflicts),
// recommendations, limitations/gaps, consolidated sources.
func composeReport(in Input, conflicts []models.Conflict, missing []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research report: %s\n\n", in.Plan.Query)

	b.WriteString("## Executive summary\n\n")
	for _, thread := range in.Plan.Threads {
		f := in.Findings[thread.ID]
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", f.Summary)
	}
	b.WriteString("\n")

	b.WriteString("## Background\n\n")
	fmt.Fprintf(&b, "Query classified as %s/%s; %d research threads were dispatched.\n\n",
		in.Plan.Classification.QueryType,
		in.Plan.Classification.Complexity,
		in.Plan.Classification.WorkerCount)

	b.WriteString("## Findings\n\n")
	for _, thread := range in.Plan.Threads {
		fmt.Fprintf(&b, "### %s\n\n", thread.Focus)
		f, ok := in.Findings[thread.ID]
		if !ok {
			fmt.Fprintf(&b, "_No finding was produced for thread %s (%s)._\n\n",
				thread.ID, statusLabel(in.Statuses[thread.ID]))
			continue
		}
		fmt.Fprintf(&b, "%s\n\n", f.Summary)
		for _, claim := range f.Claims {
			fmt.Fprintf(&b, "- %s (%s)\n", claim.Statement, claim.Source.Title)
		}
		if len(f.Claims) > 0 {
			b.WriteString("\n")
		}
	}

	b.WriteString("## Analysis\n\n")
	if len(conflicts) == 0 {
		b.WriteString("No conflicting claims were detected across threads.\n\n")
	} else {
		fmt.Fprintf(&b, "%d conflicting claim pair(s) were detected. Both perspectives are retained below.\n\n", len(conflicts))
		for _, c := range conflicts {
			fmt.Fprintf(&b, "- **Conflict on %q**:\n", c.Topic)
			fmt.Fprintf(&b, "  - %s (%s, %s)\n", c.A.Statement, c.A.Source.Title, c.A.Source.Type)
			fmt.Fprintf(&b, "  - %s (%s, %s)\n", c.B.Statement, c.B.Source.Title, c.B.Source.Type)
			switch c.Preferred {
			case "a":
				fmt.Fprintf(&b, "  - The first claim comes from the more authoritative source type.\n")
			case "b":
				fmt.Fprintf(&b, "  - The second claim comes from the more authoritative source type.\n")
			default:
				fmt.Fprintf(&b, "  - The sources rank equally; the disagreement is unresolved.\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	writeFollowUps(&b, in)

	b.WriteString("## Limitations and gaps\n\n")
	writeLimitations(&b, in, missing)

	b.WriteString("## Sources\n\n")
	writeSources(&b, in)

	return b.String()
}

// composeGapsOnly renders the degenerate output for a run where no worker
// produced a finding. Nothing is fabricated; the body is a gaps section.
func composeGapsOnly(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research report: %s\n\n", in.Plan.Query)
	b.WriteString("## Gaps\n\n")
	b.WriteString("No research thread produced a finding; this run is low confidence and carries no results.\n\n")
	for _, thread := range in.Plan.Threads {
		fmt.Fprintf(&b, "- Thread %s (%s): %s\n", thread.ID, thread.Focus, statusLabel(in.Statuses[thread.ID]))
	}
	return b.String()
}

// writeLimitations lists missing threads by ID plus every documented gap.
func writeLimitations(b *strings.Builder, in Input, missing []string) {
	wrote := false
	for _, id := range missing {
		fmt.Fprintf(b, "- Thread %s produced no finding (%s).\n", id, statusLabel(in.Statuses[id]))
		wrote = true
	}
	for _, thread := range in.Plan.Threads {
		f := in.Findings[thread.ID]
		if f == nil {
			continue
		}
		for _, gap := range f.Gaps {
			fmt.Fprintf(b, "- %s: %s\n", thread.ID, gap)
			wrote = true
		}
	}
	if !wrote {
		b.WriteString("None noted.\n")
	}
	b.WriteString("\n")
}

// writeFollowUps lists suggested follow-ups across findings, deduplicated,
// in plan order.
func writeFollowUps(b *strings.Builder, in Input) {
	seen := make(map[string]bool)
	wrote := false
	for _, thread := range in.Plan.Threads {
		f := in.Findings[thread.ID]
		if f == nil {
			continue
		}
		for _, followUp := range f.SuggestedFollowUps {
			if seen[followUp] {
				continue
			}
			seen[followUp] = true
			fmt.Fprintf(b, "- %s\n", followUp)
			wrote = true
		}
	}
	if !wrote {
		b.WriteString("None.\n")
	}
	b.WriteString("\n")
}

// writeSources consolidates sources across findings, deduplicated by URL
// (or title when no URL), sorted for stable output.
func writeSources(b *strings.Builder, in Input) {
	type src struct {
		title string
		url   string
	}
	seen := make(map[string]bool)
	var sources []src
	for _, thread := range in.Plan.Threads {
		f := in.Findings[thread.ID]
		if f == nil {
			continue
		}
		for _, s := range f.SourcesConsulted {
			key := s.URL
			if key == "" {
				key = s.Title
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			sources = append(sources, src{title: s.Title, url: s.URL})
		}
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].title != sources[j].title {
			return sources[i].title < sources[j].title
		}
		return sources[i].url < sources[j].url
	})

	if len(sources) == 0 {
		b.WriteString("None recorded.\n")
		return
	}
	for _, s := range sources {
		if s.url != "" {
			fmt.Fprintf(b, "- %s (%s)\n", s.title, s.url)
		} else {
			fmt.Fprintf(b, "- %s\n", s.title)
		}
	}
}

// statusLabel renders a terminal status for prose.
func statusLabel(status models.TerminalStatus) string {
	switch status.State {
	case models.TerminalDone:
		return "completed"
	case models.TerminalTimedOut:
		return "timed out"
	case models.TerminalFailed:
		if status.Reason != "" {
			return "failed: " + status.Reason
		}
		return "failed"
	default:
		return "status unknown"
	}
}
