package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "surveyor",
	Short: "Multi-agent research orchestrator",
	Long: `Surveyor answers a research query by fanning out parallel research
workers, each chasing an independent angle of the question, then
synthesizing their findings into a single report.

Core capabilities:
- Classifies the query to size the worker fan-out
- Builds a plan of independent research threads
- Runs workers concurrently against pluggable source tools
- Persists every artifact as a watchable JSON file
- Synthesizes findings, surfacing conflicts and gaps`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
