// Package swarm is the public coordination surface: it owns the shared
// state, runs the specialist agents, and drives project builds through
// the orchestrator.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/appswarm/appswarm/internal/agent"
	"github.com/appswarm/appswarm/internal/config"
	"github.com/appswarm/appswarm/internal/eventlog"
	"github.com/appswarm/appswarm/internal/llm"
	"github.com/appswarm/appswarm/internal/orchestrator"
	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/internal/tools"
	"github.com/appswarm/appswarm/internal/watch"
	"github.com/appswarm/appswarm/pkg/models"
)

// ErrBuildTimeout indicates the overall build timeout elapsed. The
// partial report is still returned alongside it.
var ErrBuildTimeout = errors.New("build timed out")

// Options bundles the dependencies for constructing a Swarm.
type Options struct {
	// Config supplies the timing and workspace settings. Nil uses defaults.
	Config *config.Config
	// Generator is the text-generation capability shared by all agents.
	Generator llm.Generator
	// Roster lists the specialist agents to run. Nil uses the default roster.
	Roster *config.Roster
	// Archive persists build reports. Nil disables archiving.
	Archive *state.Archive
	// Debug receives orchestrator trace lines. Nil disables tracing.
	Debug *orchestrator.DebugLogger
}

// Swarm coordinates the full agent fleet over one shared state store.
type Swarm struct {
	cfg     *config.Config
	shared  *state.SharedState
	tools   *tools.Manager
	gen     llm.Generator
	archive *state.Archive
	debug   *orchestrator.DebugLogger
	agents  []*agent.Agent

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a Swarm and registers every roster agent in shared
// state. Agents do not run until Start.
func New(opts Options) (*Swarm, error) {
	if opts.Generator == nil {
		return nil, errors.New("swarm: generator is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	roster := opts.Roster
	if roster == nil {
		roster = config.DefaultRoster()
	}

	shared := state.New(cfg.Swarm.MaxRecentMessages)
	mgr := tools.NewManager(cfg.Swarm.TaskTimeout)
	mgr.Register(tools.NewFileTool(shared, cfg.Workspace.Dir))
	mgr.Register(tools.NewAnalysisTool(shared))

	s := &Swarm{
		cfg:     cfg,
		shared:  shared,
		tools:   mgr,
		gen:     opts.Generator,
		archive: opts.Archive,
		debug:   opts.Debug,
	}

	handlers := agent.NewHandlers(agent.Deps{
		Shared:    shared,
		Tools:     mgr,
		Generator: opts.Generator,
	})
	for _, spec := range roster.Agents {
		handler, ok := handlers[spec.Role]
		if !ok {
			return nil, fmt.Errorf("swarm: no handler for role %s", spec.Role)
		}
		a := agent.New(agent.Config{
			ID:           string(spec.Role),
			Capabilities: spec.Capabilities,
			Shared:       shared,
			Handler:      handler,
			PollInterval: cfg.Swarm.AgentPollInterval,
		})
		agent.BindAgent(handler, a)
		s.agents = append(s.agents, a)
	}
	return s, nil
}

// Shared exposes the underlying state store for read-only observers.
func (s *Swarm) Shared() *state.SharedState { return s.shared }

// Start launches every agent loop. Calling Start on a running swarm is a
// no-op.
func (s *Swarm) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	for _, a := range s.agents {
		s.wg.Add(1)
		go func(a *agent.Agent) {
			defer s.wg.Done()
			a.Run(ctx)
		}(a)
	}
	s.started = true
}

// Stop cancels the agent loops and waits up to the configured grace
// period for them to exit. Stop is idempotent and safe before Start.
func (s *Swarm) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.Swarm.StopGracePeriod):
	}

	s.shared.ResetAgents()
	s.started = false
}

// CreateProject registers a new project and returns its ID.
func (s *Swarm) CreateProject(name, description string, requirements, features []string) (string, error) {
	return s.shared.CreateProject(name, description, requirements, features)
}

// BuildProject runs the full build for one project and always returns a
// report when the build ran at all. The agent loops are started if not
// already running. On overall timeout the partial report is returned
// together with ErrBuildTimeout. Builds for distinct projects may run
// concurrently.
func (s *Swarm) BuildProject(ctx context.Context, projectID string, platforms []string, ciSystem string) (*models.BuildReport, error) {
	s.Start()

	buildCtx, cancel := context.WithTimeout(ctx, s.cfg.Swarm.BuildTimeout)
	defer cancel()

	var events *eventlog.Log
	if s.cfg.Workspace.EventLogDir != "" {
		if l, err := eventlog.Open(s.cfg.Workspace.EventLogDir, projectID); err == nil {
			events = l
			defer events.Close()
		}
	}
	events.Write(eventlog.Event{Type: eventlog.EventBuildStarted, ProjectID: projectID})

	if s.cfg.Workspace.Dir != "" {
		if w, err := watch.New(s.shared, s.cfg.Workspace.Dir, projectID); err == nil {
			defer w.Close()
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		ID:           string(models.RoleOrchestrator) + "-" + projectID,
		Shared:       s.shared,
		Events:       events,
		Debug:        s.debug,
		PollInterval: s.cfg.Swarm.MonitorInterval,
		TaskTimeout:  s.cfg.Swarm.TaskTimeout,
	})

	report, err := orch.Run(buildCtx, projectID, platforms, ciSystem)
	if err != nil {
		return nil, err
	}

	if issues, ierr := s.shared.GetProjectIssues(projectID, state.IssueFilter{Status: models.IssueOpen}); ierr == nil {
		for _, issue := range issues {
			events.Write(eventlog.Event{
				Type: eventlog.EventIssueReported, ProjectID: projectID,
				AgentID: issue.ReportedBy,
				Detail:  map[string]string{"severity": string(issue.Severity), "description": issue.Description},
			})
		}
	}

	if s.archive != nil {
		if err := s.archive.SaveReport(report); err != nil {
			s.debug.Log("archive report %s: %v", projectID, err)
		}
	}
	if report.Status == models.BuildTimeout {
		return report, ErrBuildTimeout
	}
	return report, nil
}

// GetProjectStatus returns a project summary together with the agent
// fleet's current statuses, or ErrProjectNotFound.
func (s *Swarm) GetProjectStatus(projectID string) (models.ProjectStatus, error) {
	project, err := s.shared.GetProjectState(projectID)
	if err != nil {
		return models.ProjectStatus{}, err
	}
	return models.ProjectStatus{
		Project: models.ProjectSummary{
			ID:          project.ID,
			Name:        project.Name,
			Description: project.Description,
			Phase:       project.Phase,
			Progress:    project.Progress,
		},
		Agents: s.shared.GetAgentStates(),
	}, nil
}

// GetAgentStatus returns a snapshot of every registered agent.
func (s *Swarm) GetAgentStatus() map[string]models.AgentState {
	return s.shared.GetAgentStates()
}

// ListProjects returns summaries of every project in creation order.
func (s *Swarm) ListProjects() []models.ProjectSummary {
	return s.shared.ListProjects()
}
