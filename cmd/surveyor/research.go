package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/surveyorhq/surveyor/internal/config"
	"github.com/surveyorhq/surveyor/internal/orchestrator"
	"github.com/surveyorhq/surveyor/internal/state"
	"github.com/surveyorhq/surveyor/internal/store"
)

var (
	researchDataDir string
	researchTUI     bool
	researchQuiet   bool
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Run a research query",
	Long: `Run a full research cycle for a query: classify it, fan out
parallel research workers, and synthesize their findings.

The final output and every intermediate artifact are written under the
data directory as run-{id}/ JSON files. The synthesized report is also
printed to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVar(&researchDataDir, "data-dir", "", "Directory for run artifacts (default: XDG data dir)")
	researchCmd.Flags().BoolVar(&researchTUI, "tui", false, "Show a live TUI while the run executes")
	researchCmd.Flags().BoolVarP(&researchQuiet, "quiet", "q", false, "Only print the final report")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := joinArgs(args)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dataDir := resolveDataDir(cfg)

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	routing, err := loadRouting(cfg)
	if err != nil {
		return fmt.Errorf("load routing table: %w", err)
	}

	opts := []orchestrator.Option{
		orchestrator.WithRouting(routing),
		orchestrator.WithWorkerTimeout(cfg.Research.WorkerTimeout),
		orchestrator.WithMaxDeepenRounds(cfg.Research.MaxDeepenRounds),
		orchestrator.WithRetryPolicy(orchestrator.RetryPolicy{
			MaxAttempts: cfg.Research.RetryAttempts,
			Delay:       cfg.Research.RetryDelay,
		}),
	}

	if db, err := state.OpenDefault(); err == nil {
		if err := db.Migrate(); err == nil {
			opts = append(opts, orchestrator.WithStateDB(db))
			defer db.Close()
		} else {
			db.Close()
		}
	}

	if logger, err := orchestrator.NewDebugLogger(filepath.Join(dataDir, "surveyor-debug.log")); err == nil {
		opts = append(opts, orchestrator.WithLogger(logger))
		defer logger.Close()
	}

	required := orchestrator.RequiredConfig{
		Registry: registry,
		DataDir:  dataDir,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if researchTUI {
		pool := orchestrator.NewRunPool(orchestrator.PoolConfig{
			Required: required,
			Options:  opts,
		})
		return runResearchTUI(ctx, pool, query)
	}

	orch, err := orchestrator.NewOrchestrator(required, opts...)
	if err != nil {
		return err
	}
	defer orch.Stop()

	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		printEvents(orch.Events())
	}()

	output, err := orch.Run(ctx, query)
	orch.Stop()
	<-eventsDone
	if err != nil {
		return err
	}

	fmt.Println(output.Body)
	return nil
}

// printEvents renders run progress to stderr so stdout stays clean for the
// final report.
func printEvents(events <-chan orchestrator.Event) {
	if researchQuiet {
		for range events {
		}
		return
	}

	dim := color.New(color.Faint)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	for event := range events {
		switch event.Type {
		case orchestrator.EventRunStarted:
			dim.Fprintf(os.Stderr, "run %s started: %s\n", event.RunID, event.Message)
		case orchestrator.EventPlanWritten:
			dim.Fprintf(os.Stderr, "plan written: %s\n", event.Message)
		case orchestrator.EventWorkerStarted:
			dim.Fprintf(os.Stderr, "[%s] researching %s\n", event.ThreadID, event.Focus)
		case orchestrator.EventWorkerDeepening:
			yellow.Fprintf(os.Stderr, "[%s] %s\n", event.ThreadID, event.Message)
		case orchestrator.EventFindingWritten:
			green.Fprintf(os.Stderr, "[%s] finding written\n", event.ThreadID)
		case orchestrator.EventWorkerFailed:
			red.Fprintf(os.Stderr, "[%s] failed: %s\n", event.ThreadID, event.Message)
		case orchestrator.EventWorkerTimedOut:
			red.Fprintf(os.Stderr, "[%s] timed out\n", event.ThreadID)
		case orchestrator.EventSynthesisStarted:
			dim.Fprintln(os.Stderr, "synthesizing findings...")
		case orchestrator.EventRunDone:
			green.Fprintf(os.Stderr, "run %s done (%s)\n", event.RunID, event.Format)
		case orchestrator.EventRunFailed:
			red.Fprintf(os.Stderr, "run %s failed: %v\n", event.RunID, event.Error)
		}
	}
}

// resolveDataDir picks the artifact directory: flag, then config, then the
// XDG default.
func resolveDataDir(cfg *config.Config) string {
	if researchDataDir != "" {
		return researchDataDir
	}
	if cfg.Research.DataDir != "" {
		return cfg.Research.DataDir
	}
	return store.DefaultDataDir()
}

// joinArgs joins command arguments into a single query string.
func joinArgs(args []string) string {
	query := ""
	for i, arg := range args {
		if i > 0 {
			query += " "
		}
		query += arg
	}
	return query
}
