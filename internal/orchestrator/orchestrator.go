package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/appswarm/appswarm/internal/eventlog"
	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/pkg/models"
)

// Config bundles the dependencies for constructing an Orchestrator.
type Config struct {
	// ID is the orchestrator's agent identifier. It must be unique across
	// concurrently running builds so completion replies are not crossed.
	// Defaults to the orchestrator role name.
	ID string
	// Shared is the shared state store.
	Shared *state.SharedState
	// Events receives structured build events. Nil disables event logging.
	Events *eventlog.Log
	// Debug receives trace lines. Nil disables tracing.
	Debug *DebugLogger
	// PollInterval is the sleep between scheduling rounds.
	PollInterval time.Duration
	// TaskTimeout bounds how long a dispatched task may run before it is
	// treated as failed.
	TaskTimeout time.Duration
}

// Orchestrator plans one project build at a time: it decomposes the
// project into tasks, dispatches them to specialist agents through shared
// state, enforces phase order and per-task timeouts, and assembles the
// final build report.
type Orchestrator struct {
	id           string
	shared       *state.SharedState
	events       *eventlog.Log
	debug        *DebugLogger
	pollInterval time.Duration
	taskTimeout  time.Duration
}

// New constructs an Orchestrator and registers it as an agent so it has a
// message queue for task completion replies.
func New(cfg Config) *Orchestrator {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	taskTimeout := cfg.TaskTimeout
	if taskTimeout <= 0 {
		taskTimeout = 5 * time.Minute
	}
	id := cfg.ID
	if id == "" {
		id = string(models.RoleOrchestrator)
	}
	o := &Orchestrator{
		id:           id,
		shared:       cfg.Shared,
		events:       cfg.Events,
		debug:        cfg.Debug,
		pollInterval: poll,
		taskTimeout:  taskTimeout,
	}
	o.shared.RegisterAgent(o.id, []string{"planning", "scheduling"})
	return o
}

// ID returns the orchestrator's agent identifier.
func (o *Orchestrator) ID() string { return o.id }

// Run executes the full build for one project and always returns a
// report, even when the context expires mid-build. The error is non-nil
// only when the project cannot be planned at all.
func (o *Orchestrator) Run(ctx context.Context, projectID string, platforms []string, ciSystem string) (*models.BuildReport, error) {
	project, err := o.shared.GetProjectState(projectID)
	if err != nil {
		return nil, fmt.Errorf("plan build: %w", err)
	}

	plan := Decompose(project, platforms, ciSystem)
	graph, err := NewTaskGraph(plan)
	if err != nil {
		return nil, fmt.Errorf("plan build: %w", err)
	}

	started := time.Now()
	o.debug.Log("build %s: %d tasks planned", projectID, len(plan))

	phases := plannedPhases(plan)
	interrupted := false
	criticalStop := false

	for i, phase := range phases {
		o.shared.UpdateProjectPhase(projectID, phase)
		o.events.Write(eventlog.Event{
			Type: eventlog.EventPhaseAdvanced, ProjectID: projectID,
			Detail: map[string]string{"phase": string(phase)},
		})
		o.debug.Log("build %s: entering phase %s", projectID, phase)

		if !o.runPhase(ctx, graph, projectID, phase, i, len(phases)) {
			interrupted = true
			break
		}
		if o.shared.HasCriticalOpenIssue(projectID) {
			o.debug.Log("build %s: critical issue open after %s, stopping", projectID, phase)
			criticalStop = true
			break
		}
	}

	return o.finish(projectID, project.Name, plan, started, interrupted, criticalStop), nil
}

// runPhase drives one phase to completion. It returns false when the
// context expired before the phase settled.
func (o *Orchestrator) runPhase(ctx context.Context, graph *TaskGraph, projectID string, phase models.ProjectPhase, phaseIndex, phaseCount int) bool {
	for !graph.PhaseSettled(phase) {
		for _, task := range graph.Ready(phase) {
			o.dispatch(task)
		}

		for _, msg := range o.shared.GetMessages(o.id, true) {
			if msg.Type != models.MessageTaskCompleted || msg.Payload.TaskCompleted == nil {
				continue
			}
			o.handleCompletion(graph, *msg.Payload.TaskCompleted)
		}

		o.expireStalled(graph, phase)

		terminal, total := graph.PhaseCounts(phase)
		if total > 0 {
			progress := (float64(phaseIndex) + float64(terminal)/float64(total)) / float64(phaseCount)
			o.shared.UpdateProjectProgress(projectID, progress)
		}

		if graph.PhaseSettled(phase) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(o.pollInterval):
		}
	}
	return true
}

// dispatch sends one task to its role's agent queue.
func (o *Orchestrator) dispatch(task *models.Task) {
	now := time.Now()
	task.Status = models.TaskStatusInProgress
	task.DispatchedAt = &now

	o.shared.SendMessage(o.id, string(task.Role), models.MessageTaskRequest, models.Payload{
		TaskRequest: &models.TaskRequestPayload{Task: *task},
	})
	o.events.Write(eventlog.Event{
		Type: eventlog.EventTaskDispatched, ProjectID: task.ProjectID,
		AgentID: string(task.Role), TaskID: task.ID,
	})
	o.debug.Log("dispatched %s (%s) to %s", task.ID, task.Title, task.Role)
}

// handleCompletion applies one task completion report. Reports for
// unknown or already terminal tasks are stale and ignored.
func (o *Orchestrator) handleCompletion(graph *TaskGraph, done models.TaskCompletedPayload) {
	task := graph.Task(done.TaskID)
	if task == nil || task.Status != models.TaskStatusInProgress {
		return
	}

	if done.Success {
		now := time.Now()
		task.Status = models.TaskStatusDone
		task.CompletedAt = &now
		graph.MarkDone(task.ID)
		o.events.Write(eventlog.Event{
			Type: eventlog.EventTaskCompleted, ProjectID: task.ProjectID,
			AgentID: string(task.Role), TaskID: task.ID,
			Detail: map[string]string{"summary": done.Summary},
		})
		o.debug.Log("task %s done: %s", task.ID, done.Summary)
		return
	}
	o.failTask(graph, task, done.Error)
}

// expireStalled fails every in-flight task in the phase with no sign of
// life for longer than the task timeout. An agent that keeps updating
// its status while working the task counts as alive, however long the
// task runs.
func (o *Orchestrator) expireStalled(graph *TaskGraph, phase models.ProjectPhase) {
	now := time.Now()
	for _, task := range graph.tasks {
		if task.Phase != phase || task.Status != models.TaskStatusInProgress || task.DispatchedAt == nil {
			continue
		}
		last := *task.DispatchedAt
		if st, ok := o.shared.GetAgentState(string(task.Role)); ok &&
			st.CurrentTask == task.Title && st.LastUpdate.After(last) {
			last = st.LastUpdate
		}
		if now.Sub(last) > o.taskTimeout {
			o.failTask(graph, task, "task timed out")
		}
	}
}

// failTask applies the bounded retry policy: the first failure re-queues
// the task once, the second is permanent and skips dependents.
func (o *Orchestrator) failTask(graph *TaskGraph, task *models.Task, reason string) {
	if task.RetryCount == 0 {
		task.RetryCount++
		task.Status = models.TaskStatusPending
		task.DispatchedAt = nil
		o.events.Write(eventlog.Event{
			Type: eventlog.EventTaskRetried, ProjectID: task.ProjectID,
			AgentID: string(task.Role), TaskID: task.ID,
			Detail: map[string]string{"reason": reason},
		})
		o.debug.Log("task %s failed (%s), re-queued", task.ID, reason)
		return
	}

	now := time.Now()
	task.Status = models.TaskStatusFailed
	task.Error = reason
	task.CompletedAt = &now
	skipped := graph.MarkFailed(task.ID)
	o.events.Write(eventlog.Event{
		Type: eventlog.EventTaskFailed, ProjectID: task.ProjectID,
		AgentID: string(task.Role), TaskID: task.ID,
		Detail: map[string]string{"reason": reason, "skipped": fmt.Sprintf("%d", len(skipped))},
	})
	o.debug.Log("task %s failed permanently (%s), %d dependents skipped", task.ID, reason, len(skipped))
}

// finish computes the terminal status, writes it to shared state, and
// assembles the build report.
func (o *Orchestrator) finish(projectID, projectName string, plan []*models.Task, started time.Time, interrupted, criticalStop bool) *models.BuildReport {
	failures := 0
	for _, task := range plan {
		if task.Status == models.TaskStatusFailed || task.Status == models.TaskStatusSkipped {
			failures++
		}
	}
	openIssues := o.shared.OpenIssueCount(projectID)

	var status models.BuildStatus
	switch {
	case interrupted:
		status = models.BuildTimeout
		o.shared.UpdateProjectPhase(projectID, models.PhaseError)
	case criticalStop:
		status = models.BuildFailed
		o.shared.UpdateProjectPhase(projectID, models.PhaseError)
	case failures > 0 || openIssues > 0:
		status = models.BuildCompletedWithIssues
		o.shared.UpdateProjectPhase(projectID, models.PhaseCompletedWithIssues)
		o.shared.UpdateProjectProgress(projectID, 1.0)
	default:
		status = models.BuildCompleted
		o.shared.UpdateProjectPhase(projectID, models.PhaseCompleted)
		o.shared.UpdateProjectProgress(projectID, 1.0)
	}

	report := &models.BuildReport{
		ProjectID:   projectID,
		ProjectName: projectName,
		Status:      status,
		OpenIssues:  openIssues,
		StartedAt:   started,
		Duration:    time.Since(started),
	}

	if project, err := o.shared.GetProjectState(projectID); err == nil {
		report.ProjectName = project.Name
		report.FilesCreated = project.FilesCreated()
		report.ArchitectureDecisions = len(project.ArchitectureDecisions)
		report.SecurityFindings = project.SecurityFindings
		report.TestResults = project.TestResults
		report.DeploymentConfig = project.DeploymentConfig
		for path := range project.Documentation {
			report.Documentation = append(report.Documentation, path)
		}
		sort.Strings(report.Documentation)
	}

	for _, task := range plan {
		report.Tasks = append(report.Tasks, models.TaskOutcome{
			TaskID:  task.ID,
			Role:    task.Role,
			Title:   task.Title,
			Status:  task.Status,
			Retries: task.RetryCount,
			Error:   task.Error,
		})
	}

	o.events.Write(eventlog.Event{
		Type: eventlog.EventBuildFinished, ProjectID: projectID,
		Detail: map[string]string{"status": string(status)},
	})
	o.debug.Log("build %s finished: %s (%d failures, %d open issues)", projectID, status, failures, openIssues)
	return report
}

// plannedPhases returns the active phases that have at least one task, in
// execution order.
func plannedPhases(plan []*models.Task) []models.ProjectPhase {
	present := make(map[models.ProjectPhase]bool, len(plan))
	for _, task := range plan {
		present[task.Phase] = true
	}
	var phases []models.ProjectPhase
	for _, phase := range models.ActivePhases {
		if present[phase] {
			phases = append(phases, phase)
		}
	}
	return phases
}
