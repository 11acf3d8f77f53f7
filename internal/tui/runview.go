// Package tui renders a live view of a research run.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RunEventMsg carries one orchestrator event into the TUI.
type RunEventMsg struct {
	Type      string
	RunID     string
	ThreadID  string
	Focus     string
	Message   string
	Error     string
	Format    string
	Timestamp time.Time
}

// RunDoneMsg signals that the run has finished.
type RunDoneMsg struct {
	Success bool
	Message string
}

// threadRow is the display state of one research thread.
type threadRow struct {
	id      string
	focus   string
	state   string
	message string
}

// RunView is the bubbletea model for a single research run.
type RunView struct {
	query   string
	runID   string
	threads map[string]*threadRow
	order   []string

	spin    spinner.Model
	done    bool
	success bool
	final   string
	format  string

	titleStyle  lipgloss.Style
	idStyle     lipgloss.Style
	doneStyle   lipgloss.Style
	failStyle   lipgloss.Style
	activeStyle lipgloss.Style
	dimStyle    lipgloss.Style
}

// NewRunView creates a run view for the given query.
func NewRunView(query string) *RunView {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &RunView{
		query:   query,
		threads: make(map[string]*threadRow),
		spin:    sp,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		idStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),

		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		activeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),
	}
}

// Init starts the spinner.
func (m *RunView) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles messages.
func (m *RunView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case RunEventMsg:
		m.applyEvent(msg)
		return m, nil

	case RunDoneMsg:
		m.done = true
		m.success = msg.Success
		m.final = msg.Message
		return m, nil
	}

	return m, nil
}

// applyEvent folds an orchestrator event into the display state.
func (m *RunView) applyEvent(msg RunEventMsg) {
	if msg.RunID != "" {
		m.runID = msg.RunID
	}

	if msg.ThreadID != "" {
		row, ok := m.threads[msg.ThreadID]
		if !ok {
			row = &threadRow{id: msg.ThreadID, focus: msg.Focus}
			m.threads[msg.ThreadID] = row
			m.order = append(m.order, msg.ThreadID)
			sort.Strings(m.order)
		}
		if msg.Focus != "" {
			row.focus = msg.Focus
		}
		row.message = msg.Message
	}

	switch msg.Type {
	case "worker_started":
		m.threads[msg.ThreadID].state = "searching"
	case "worker_deepening":
		m.threads[msg.ThreadID].state = "deepening"
	case "finding_written":
		m.threads[msg.ThreadID].state = "done"
	case "worker_failed":
		m.threads[msg.ThreadID].state = "failed"
	case "worker_timed_out":
		m.threads[msg.ThreadID].state = "timed out"
	case "synthesis_started":
		for _, row := range m.threads {
			if row.state != "done" && row.state != "failed" && row.state != "timed out" {
				row.state = "done"
			}
		}
	case "final_output_written", "run_done":
		m.format = msg.Format
	}
}

// View renders the run state.
func (m *RunView) View() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("Surveyor"))
	b.WriteString("  ")
	b.WriteString(m.dimStyle.Render(truncate(m.query, 60)))
	if m.runID != "" {
		b.WriteString("  ")
		b.WriteString(m.idStyle.Render("run " + m.runID))
	}
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString("  ")
		b.WriteString(m.spin.View())
		b.WriteString(" classifying and planning...\n")
	}

	for _, id := range m.order {
		row := m.threads[id]
		var marker, state string
		switch row.state {
		case "done":
			marker = m.doneStyle.Render("✓")
			state = m.doneStyle.Render("done")
		case "failed":
			marker = m.failStyle.Render("✗")
			state = m.failStyle.Render("failed")
		case "timed out":
			marker = m.failStyle.Render("✗")
			state = m.failStyle.Render("timed out")
		default:
			marker = m.spin.View()
			state = m.activeStyle.Render(row.state)
		}
		b.WriteString(fmt.Sprintf("  %s %s  %-10s %s\n",
			marker,
			m.idStyle.Render(row.id),
			state,
			truncate(row.focus, 48)))
		if row.message != "" && row.state != "done" {
			b.WriteString("      ")
			b.WriteString(m.dimStyle.Render(truncate(row.message, 60)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.done {
		if m.success {
			label := "Run complete"
			if m.format != "" {
				label = fmt.Sprintf("Run complete (%s)", m.format)
			}
			b.WriteString("  " + m.doneStyle.Render(label) + "\n")
		} else {
			b.WriteString("  " + m.failStyle.Render("Run failed: "+m.final) + "\n")
		}
		b.WriteString(m.dimStyle.Render("  press q to quit") + "\n")
	} else {
		b.WriteString(m.dimStyle.Render("  q to quit") + "\n")
	}

	return b.String()
}

// truncate trims a string to the given display width.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
