package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/appswarm/appswarm/internal/config"
	"github.com/appswarm/appswarm/internal/llm"
	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/internal/swarm"
	"github.com/appswarm/appswarm/internal/tui"
	"github.com/appswarm/appswarm/pkg/models"
)

var (
	buildDescription  string
	buildRequirements []string
	buildFeatures     []string
	buildPlatforms    []string
	buildCISystem     string
	buildRosterPath   string
	buildWatch        bool
)

var buildCmd = &cobra.Command{
	Use:   "build <project-name>",
	Short: "Build a project with the agent swarm",
	Long: `Create a project and run the full agent build for it.

Each --require flag adds one requirement; each --feature adds one
feature the implementation agent builds a module for. The finished
report is printed and archived, so 'appswarm status' can read it later.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildDescription, "description", "d", "", "Project description")
	buildCmd.Flags().StringArrayVarP(&buildRequirements, "require", "r", nil, "Project requirement (repeatable)")
	buildCmd.Flags().StringArrayVarP(&buildFeatures, "feature", "f", nil, "Project feature (repeatable)")
	buildCmd.Flags().StringArrayVarP(&buildPlatforms, "platform", "p", nil, "Target platform (repeatable)")
	buildCmd.Flags().StringVar(&buildCISystem, "ci", "", "CI system to prepare (e.g. github_actions)")
	buildCmd.Flags().StringVar(&buildRosterPath, "roster", "", "Path to an agent roster YAML file")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Show the live build monitor")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gen, err := llm.NewClient(llm.ClientConfig{
		Model:         cfg.Anthropic.Model,
		FallbackModel: cfg.Anthropic.FallbackModel,
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
		MaxRetries:    cfg.Retry.MaxRetries,
		BackoffBase:   cfg.Retry.BackoffBase,
		BackoffCap:    cfg.Retry.BackoffCap,
	})
	if err != nil {
		return err
	}

	roster, err := config.LoadRoster(buildRosterPath)
	if err != nil {
		return err
	}

	archive, err := state.OpenArchive(state.DefaultArchivePath())
	if err != nil {
		return fmt.Errorf("open report archive: %w", err)
	}
	defer archive.Close()

	s, err := swarm.New(swarm.Options{
		Config:    cfg,
		Generator: gen,
		Roster:    roster,
		Archive:   archive,
	})
	if err != nil {
		return err
	}
	s.Start()
	defer s.Stop()

	projectID, err := s.CreateProject(args[0], buildDescription, buildRequirements, buildFeatures)
	if err != nil {
		return err
	}
	fmt.Printf("project %s created (%s)\n", color.CyanString(args[0]), projectID)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var report *models.BuildReport
	var buildErr error
	if buildWatch {
		done := make(chan struct{})
		go func() {
			report, buildErr = s.BuildProject(ctx, projectID, buildPlatforms, buildCISystem)
			close(done)
		}()
		if err := tui.Run(s.Shared(), projectID, 200*time.Millisecond); err != nil {
			return err
		}
		<-done
	} else {
		report, buildErr = s.BuildProject(ctx, projectID, buildPlatforms, buildCISystem)
	}

	if buildErr != nil && !errors.Is(buildErr, swarm.ErrBuildTimeout) {
		return buildErr
	}
	printReport(report)
	if errors.Is(buildErr, swarm.ErrBuildTimeout) {
		color.Yellow("build timed out; report is partial")
	}
	return nil
}

func printReport(r *models.BuildReport) {
	statusColor := color.GreenString
	switch r.Status {
	case models.BuildCompletedWithIssues, models.BuildTimeout:
		statusColor = color.YellowString
	case models.BuildFailed:
		statusColor = color.RedString
	}

	fmt.Println()
	fmt.Printf("Build %s: %s in %s\n", r.ProjectName, statusColor(string(r.Status)), r.Duration.Round(time.Millisecond))
	fmt.Printf("  Files created:          %d\n", r.FilesCreated)
	fmt.Printf("  Architecture decisions: %d\n", r.ArchitectureDecisions)
	fmt.Printf("  Security findings:      %d\n", len(r.SecurityFindings))
	fmt.Printf("  Open issues:            %d\n", r.OpenIssues)
	if len(r.Documentation) > 0 {
		fmt.Printf("  Documentation:          %s\n", strings.Join(r.Documentation, ", "))
	}
	if len(r.DeploymentConfig) > 0 {
		fmt.Printf("  CI system:              %s\n", r.DeploymentConfig["ci_system"])
	}

	fmt.Println("  Tasks:")
	for _, task := range r.Tasks {
		mark := color.GreenString("✓")
		switch task.Status {
		case models.TaskStatusFailed:
			mark = color.RedString("✗")
		case models.TaskStatusSkipped:
			mark = color.YellowString("-")
		}
		line := fmt.Sprintf("    %s %-15s %s", mark, task.Role, task.Title)
		if task.Retries > 0 {
			line += color.YellowString(" (%d retry)", task.Retries)
		}
		if task.Error != "" {
			line += color.RedString(" %s", task.Error)
		}
		fmt.Println(line)
	}
}
