package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/surveyorhq/surveyor/internal/config"
	"github.com/surveyorhq/surveyor/internal/store"
)

var watchDataDir string

var watchCmd = &cobra.Command{
	Use:   "watch <run-id>",
	Short: "Watch a run's artifacts land in real time",
	Long: `Follow a run directory and report each artifact as it is written:
the plan, each thread's finding, and the final output.

Artifacts are renamed into place atomically, so every reported file is
complete and readable the moment it appears. Watching ends when the
final output lands or on interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDataDir, "data-dir", "", "Directory for run artifacts (default: XDG data dir)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	runID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dataDir := watchDataDir
	if dataDir == "" {
		dataDir = cfg.Research.DataDir
	}
	if dataDir == "" {
		dataDir = store.DefaultDataDir()
	}

	runStore, err := store.OpenRunStore(dataDir, runID)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher, err := store.WatchRun(ctx, runStore)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	fmt.Printf("Watching run %s in %s\n", runID, runStore.Dir())

	for event := range watcher.Events() {
		switch event.Kind {
		case store.ArtifactPlan:
			fmt.Println("plan written")
		case store.ArtifactFinding:
			green.Printf("finding written for thread %s\n", event.ThreadID)
		case store.ArtifactFinalOutput:
			green.Println("final output written")
			return nil
		}
	}
	return nil
}
