package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/appswarm/appswarm/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status <project-id>",
	Short: "Show the archived build report for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived build reports",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runStatus(cmd *cobra.Command, args []string) error {
	archive, err := state.OpenArchive(state.DefaultArchivePath())
	if err != nil {
		return fmt.Errorf("open report archive: %w", err)
	}
	defer archive.Close()

	report, err := archive.GetReport(args[0])
	if errors.Is(err, state.ErrProjectNotFound) {
		fmt.Printf("no build report for project %s\n", args[0])
		return nil
	}
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	archive, err := state.OpenArchive(state.DefaultArchivePath())
	if err != nil {
		return fmt.Errorf("open report archive: %w", err)
	}
	defer archive.Close()

	reports, err := archive.ListReports()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("no archived builds. Run 'appswarm build <name>' to start one.")
		return nil
	}

	for _, r := range reports {
		statusColor := color.GreenString
		switch r.Status {
		case "completed_with_issues", "timeout":
			statusColor = color.YellowString
		case "failed":
			statusColor = color.RedString
		}
		fmt.Printf("%s  %-20s %s  %d files, started %s\n",
			r.ProjectID, r.ProjectName, statusColor(string(r.Status)),
			r.FilesCreated, r.StartedAt.Format(time.RFC3339))
	}
	return nil
}
