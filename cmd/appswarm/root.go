package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "appswarm",
	Short: "Multi-agent application build orchestrator",
	Long: `Appswarm coordinates a swarm of specialist LLM agents that design,
implement, test, review, and document an application build together.

A build decomposes the project into role-specific tasks, runs them
through dependency-ordered phases, and produces a build report with
every file, decision, and finding the agents recorded.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}
