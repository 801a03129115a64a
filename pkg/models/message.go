package models

import "time"

// MessageType classifies an inter-agent message.
type MessageType string

const (
	// MessageTaskRequest asks an agent to execute a task.
	MessageTaskRequest MessageType = "task_request"
	// MessageTaskCompleted reports that a task finished, successfully or not.
	MessageTaskCompleted MessageType = "task_completed"
	// MessageStatusUpdate broadcasts an agent status change.
	MessageStatusUpdate MessageType = "status_update"
	// MessageCollaborationRequest asks another agent for help mid-task.
	MessageCollaborationRequest MessageType = "collaboration_request"
	// MessageCollaborationReply answers a collaboration request.
	MessageCollaborationReply MessageType = "collaboration_reply"
	// MessageStateSync notifies agents of a shared-state change.
	MessageStateSync MessageType = "state_sync"
	// MessageErrorReport notifies the orchestrator of an agent-level error.
	MessageErrorReport MessageType = "error_report"
)

// Valid returns true if the message type is a known value.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTaskRequest, MessageTaskCompleted, MessageStatusUpdate,
		MessageCollaborationRequest, MessageCollaborationReply,
		MessageStateSync, MessageErrorReport:
		return true
	default:
		return false
	}
}

// Broadcast is the recipient value meaning "deliver to every agent queue
// except the sender's".
const Broadcast = ""

// Payload is the typed content of a message. Exactly one of the pointer
// fields is set, matching the message type; Extra carries any additional
// fields a sender wants to attach.
type Payload struct {
	// TaskRequest is set for task_request messages.
	TaskRequest *TaskRequestPayload `json:"task_request,omitempty"`
	// TaskCompleted is set for task_completed messages.
	TaskCompleted *TaskCompletedPayload `json:"task_completed,omitempty"`
	// StatusUpdate is set for status_update messages.
	StatusUpdate *StatusUpdatePayload `json:"status_update,omitempty"`
	// Collaboration is set for collaboration_request messages.
	Collaboration *CollaborationPayload `json:"collaboration,omitempty"`
	// Extra carries open additional fields for any message type.
	Extra map[string]string `json:"extra,omitempty"`
}

// TaskRequestPayload carries the task an agent is asked to execute.
type TaskRequestPayload struct {
	// Task is the task to execute.
	Task Task `json:"task"`
}

// TaskCompletedPayload reports the outcome of a task.
type TaskCompletedPayload struct {
	// TaskID identifies the finished task.
	TaskID string `json:"task_id"`
	// ProjectID identifies the project the task belonged to.
	ProjectID string `json:"project_id"`
	// Success is true if the task completed without error.
	Success bool `json:"success"`
	// Error holds the failure message when Success is false.
	Error string `json:"error,omitempty"`
	// Summary is a short human-readable description of what was produced.
	Summary string `json:"summary,omitempty"`
}

// StatusUpdatePayload broadcasts an agent status change.
type StatusUpdatePayload struct {
	// Status is the agent's new status.
	Status AgentStatus `json:"status"`
	// CurrentTask describes the task in progress, if any.
	CurrentTask string `json:"current_task,omitempty"`
	// Progress is the task progress fraction.
	Progress float64 `json:"progress"`
}

// CollaborationPayload asks another agent for help mid-task.
type CollaborationPayload struct {
	// Topic names what help is needed.
	Topic string `json:"topic"`
	// ProjectID identifies the project concerned.
	ProjectID string `json:"project_id"`
	// Detail provides free-text context for the request.
	Detail string `json:"detail,omitempty"`
}

// Message is a single inter-agent message. Delivery is FIFO per recipient
// queue and at-most-once per queue read.
type Message struct {
	// From is the sending agent's ID.
	From string `json:"from"`
	// To is the recipient agent's ID, or Broadcast for all agents.
	To string `json:"to"`
	// Type classifies the message.
	Type MessageType `json:"type"`
	// Payload is the typed message content.
	Payload Payload `json:"payload"`
	// SentAt is when the message was enqueued.
	SentAt time.Time `json:"sent_at"`
}
