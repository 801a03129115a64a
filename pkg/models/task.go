package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not been dispatched.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task has been dispatched to an agent.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task failed permanently.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusSkipped indicates the task was skipped by policy.
	TaskStatusSkipped TaskStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone,
		TaskStatusFailed, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// Terminal returns true if the task needs no further scheduling.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusDone || s == TaskStatusFailed || s == TaskStatusSkipped
}

// Task is a unit of work assigned to one specialist agent.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// ProjectID identifies the project this task belongs to.
	ProjectID string `json:"project_id"`
	// Role is the specialist role the task is assigned to.
	Role AgentRole `json:"role"`
	// Phase is the project phase this task belongs to.
	Phase ProjectPhase `json:"phase"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed instructions for the task.
	Description string `json:"description,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// DependsOn lists task IDs that must complete before this task.
	DependsOn []string `json:"depends_on,omitempty"`
	// RetryCount is the number of times this task has been re-dispatched.
	RetryCount int `json:"retry_count,omitempty"`
	// Error contains the failure message if the task failed.
	Error string `json:"error,omitempty"`
	// Platforms lists the target platforms for the build, if relevant.
	Platforms []string `json:"platforms,omitempty"`
	// CISystem names the requested CI system, if relevant.
	CISystem string `json:"ci_system,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// DispatchedAt is when the task was last sent to an agent.
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	// CompletedAt is when the task reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
