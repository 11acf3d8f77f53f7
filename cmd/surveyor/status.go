package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/surveyorhq/surveyor/internal/state"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show recent research runs",
	Long: `Display recent research runs and their outcomes.

Without arguments, lists recent runs. With a run ID, shows that run's
threads and their terminal status.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Maximum number of runs to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	dbPath := state.DefaultDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet. Run 'surveyor research <query>' to start.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Sweep runs orphaned by a crashed process before reporting
	if cleaned, err := state.NewRecoveryManager(db).CleanAll(); err == nil && cleaned > 0 {
		fmt.Printf("Marked %d interrupted run(s) as failed.\n\n", cleaned)
	}

	if len(args) == 1 {
		return displayRun(db, args[0])
	}
	return displayRecentRuns(db)
}

// displayRecentRuns lists the most recent runs.
func displayRecentRuns(db *state.DB) error {
	runs, err := db.ListRuns(nil)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Run 'surveyor research <query>' to start.")
		return nil
	}
	if len(runs) > statusLimit {
		runs = runs[:statusLimit]
	}

	for _, r := range runs {
		statusColor(r.Status).Printf("%-9s", r.Status)
		fmt.Printf(" %s  %s", r.ID, truncateQuery(r.Query, 50))
		if r.Format != "" {
			fmt.Printf("  [%s]", r.Format)
		}
		fmt.Printf("  %s ago\n", formatAge(r.StartedAt))
	}
	return nil
}

// displayRun shows one run's threads.
func displayRun(db *state.DB, runID string) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	fmt.Printf("Run %s: %s\n", run.ID, run.Query)
	fmt.Printf("  Type: %s/%s, %d workers\n", run.QueryType, run.Complexity, run.WorkerCount)
	fmt.Print("  Status: ")
	statusColor(run.Status).Println(string(run.Status))
	if run.Format != "" {
		fmt.Printf("  Format: %s\n", run.Format)
	}
	fmt.Printf("  Started: %s ago\n", formatAge(run.StartedAt))
	if run.CompletedAt != nil {
		fmt.Printf("  Duration: %s\n", run.CompletedAt.Sub(run.StartedAt).Round(time.Second))
	}

	threads, err := db.ListThreads(runID)
	if err != nil {
		return fmt.Errorf("list threads: %w", err)
	}
	if len(threads) == 0 {
		return nil
	}

	fmt.Println("\nThreads:")
	for _, t := range threads {
		threadColor(t.Status).Printf("  %-9s", t.Status)
		fmt.Printf(" %s  %s (%s)", t.ThreadID, t.Focus, t.Capability)
		if t.Reason != "" {
			fmt.Printf("  %s", color.New(color.Faint).Sprint(t.Reason))
		}
		fmt.Println()
	}
	return nil
}

func statusColor(s state.RunStatus) *color.Color {
	switch s {
	case state.RunCompleted:
		return color.New(color.FgGreen)
	case state.RunFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func threadColor(s state.ThreadStatus) *color.Color {
	switch s {
	case state.ThreadDone:
		return color.New(color.FgGreen)
	case state.ThreadFailed, state.ThreadTimedOut:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func truncateQuery(q string, max int) string {
	if len(q) <= max {
		return q
	}
	return q[:max-1] + "…"
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
