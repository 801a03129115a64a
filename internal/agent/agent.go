// Package agent provides the generic agent lifecycle and the specialist
// role handlers. An agent polls its message queue in shared state,
// executes task requests through its handler, and reflects every
// meaningful action back into shared state before proceeding.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/pkg/models"
)

// Handler executes tasks for one specialist role.
type Handler interface {
	// Role is the specialist role this handler fills.
	Role() models.AgentRole
	// Execute performs the task and returns a short summary of what was
	// produced. All outputs (files, decisions, findings) must be written
	// through shared state before Execute returns.
	Execute(ctx context.Context, task models.Task) (string, error)
}

// Collaborator is implemented by handlers that can answer collaboration
// requests from other agents while otherwise idle.
type Collaborator interface {
	// Collaborate answers one request and returns the reply text.
	Collaborate(ctx context.Context, from string, req models.CollaborationPayload) (string, error)
}

// Agent is one independently scheduled unit running a specialist role.
type Agent struct {
	id           string
	capabilities []string
	shared       *state.SharedState
	handler      Handler
	pollInterval time.Duration
	collabWait   time.Duration

	// pending buffers messages received while blocked waiting for a
	// collaboration reply, so no task request is lost.
	pending []models.Message
}

// Config bundles the dependencies for constructing an Agent.
type Config struct {
	// ID is the agent's stable identifier. Defaults to the handler role.
	ID string
	// Capabilities is the agent's declared capability list.
	Capabilities []string
	// Shared is the shared state store.
	Shared *state.SharedState
	// Handler executes this agent's tasks.
	Handler Handler
	// PollInterval is the sleep between empty queue checks.
	PollInterval time.Duration
	// CollabWait bounds how long a collaboration request blocks.
	CollabWait time.Duration
}

// New constructs an Agent. The agent registers itself in shared state.
func New(cfg Config) *Agent {
	id := cfg.ID
	if id == "" {
		id = string(cfg.Handler.Role())
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	collabWait := cfg.CollabWait
	if collabWait <= 0 {
		collabWait = 5 * time.Second
	}
	a := &Agent{
		id:           id,
		capabilities: cfg.Capabilities,
		shared:       cfg.Shared,
		handler:      cfg.Handler,
		pollInterval: poll,
		collabWait:   collabWait,
	}
	a.shared.RegisterAgent(a.id, a.capabilities)
	return a
}

// ID returns the agent's identifier.
func (a *Agent) ID() string { return a.id }

// Run is the agent's message-processing loop. It returns when ctx is
// cancelled, after finishing the unit of work in flight. The agent's
// status is reset to idle on exit.
func (a *Agent) Run(ctx context.Context) {
	a.shared.UpdateAgentStatus(a.id, models.AgentStatusIdle, "", 0)
	defer a.shared.UpdateAgentStatus(a.id, models.AgentStatusIdle, "", 0)

	for {
		msgs := a.takePending()
		msgs = append(msgs, a.shared.GetMessages(a.id, true)...)

		for _, msg := range msgs {
			a.handleMessage(ctx, msg)
			if ctx.Err() != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.pollInterval):
		}
	}
}

func (a *Agent) takePending() []models.Message {
	msgs := a.pending
	a.pending = nil
	return msgs
}

func (a *Agent) handleMessage(ctx context.Context, msg models.Message) {
	switch msg.Type {
	case models.MessageTaskRequest:
		if msg.Payload.TaskRequest != nil {
			a.executeTask(ctx, msg.From, msg.Payload.TaskRequest.Task)
		}
	case models.MessageCollaborationRequest:
		a.answerCollaboration(ctx, msg)
	default:
		// Broadcasts (state_sync, status_update) are informational.
	}
}

// executeTask runs one task through the handler. A failing task is
// retried exactly once after reporting an issue; a second failure is
// final and reported back to the orchestrator.
func (a *Agent) executeTask(ctx context.Context, requester string, task models.Task) {
	a.shared.UpdateAgentStatus(a.id, models.AgentStatusWorking, task.Title, 0)

	summary, err := a.handler.Execute(ctx, task)
	if err != nil {
		issueID := a.reportFailure(task, err, false)

		a.shared.UpdateAgentStatus(a.id, models.AgentStatusError, task.Title, 0)
		if ctx.Err() != nil {
			return
		}

		// One recovery attempt per task.
		a.shared.UpdateAgentStatus(a.id, models.AgentStatusWorking, task.Title, 0)
		summary, err = a.handler.Execute(ctx, task)
		if err != nil {
			a.reportFailure(task, err, true)
			a.shared.UpdateAgentStatus(a.id, models.AgentStatusError, task.Title, 0)
			a.reply(requester, task, false, err.Error(), "")
			return
		}

		// The recovery attempt worked; close out the transient issue.
		if issueID != "" {
			if claimErr := a.shared.ClaimIssue(issueID, a.id); claimErr == nil {
				a.shared.ResolveIssue(issueID)
			}
		}
	}

	a.shared.UpdateAgentStatus(a.id, models.AgentStatusCompleted, task.Title, 1.0)
	a.reply(requester, task, true, "", summary)
}

// reportFailure converts a handler error into an issue report. The first
// failure of a task is transient (medium); a final failure is critical
// for architecture and implementation tasks, high otherwise.
func (a *Agent) reportFailure(task models.Task, err error, final bool) string {
	severity := models.SeverityMedium
	if final {
		switch task.Role {
		case models.RoleArchitecture, models.RoleImplementation:
			severity = models.SeverityCritical
		default:
			severity = models.SeverityHigh
		}
	}

	issueID, repErr := a.shared.ReportIssue(task.ProjectID, models.Issue{
		ReportedBy:  a.id,
		Type:        "task_failure",
		Severity:    severity,
		Description: fmt.Sprintf("%s: %v", task.Title, err),
	})
	if repErr != nil {
		return ""
	}
	return issueID
}

func (a *Agent) reply(to string, task models.Task, success bool, errMsg, summary string) {
	a.shared.SendMessage(a.id, to, models.MessageTaskCompleted, models.Payload{
		TaskCompleted: &models.TaskCompletedPayload{
			TaskID:    task.ID,
			ProjectID: task.ProjectID,
			Success:   success,
			Error:     errMsg,
			Summary:   summary,
		},
	})
}

func (a *Agent) answerCollaboration(ctx context.Context, msg models.Message) {
	collab, ok := a.handler.(Collaborator)
	if !ok || msg.Payload.Collaboration == nil {
		return
	}

	reply, err := collab.Collaborate(ctx, msg.From, *msg.Payload.Collaboration)
	if err != nil {
		reply = ""
	}
	a.shared.SendMessage(a.id, msg.From, models.MessageCollaborationReply, models.Payload{
		Extra: map[string]string{
			"topic": msg.Payload.Collaboration.Topic,
			"reply": reply,
		},
	})
}

// RequestCollaboration sends a collaboration request to another agent and
// blocks until the reply arrives or the wait budget elapses. The agent is
// marked waiting for the duration; messages received meanwhile are
// buffered, not dropped. An empty reply and false are returned on timeout.
func (a *Agent) RequestCollaboration(ctx context.Context, to string, req models.CollaborationPayload) (string, bool) {
	a.shared.SendMessage(a.id, to, models.MessageCollaborationRequest, models.Payload{
		Collaboration: &req,
	})
	a.shared.UpdateAgentStatus(a.id, models.AgentStatusWaiting, "awaiting "+to, 0)
	defer a.shared.UpdateAgentStatus(a.id, models.AgentStatusWorking, "", 0)

	deadline := time.Now().Add(a.collabWait)
	for time.Now().Before(deadline) {
		for _, msg := range a.shared.GetMessages(a.id, true) {
			if msg.Type == models.MessageCollaborationReply && msg.From == to &&
				msg.Payload.Extra["topic"] == req.Topic {
				return msg.Payload.Extra["reply"], true
			}
			a.pending = append(a.pending, msg)
		}

		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(a.pollInterval):
		}
	}
	return "", false
}
