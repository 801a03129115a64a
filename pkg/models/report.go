package models

import "time"

// BuildStatus is the overall outcome of a project build.
type BuildStatus string

const (
	// BuildCompleted indicates every task finished successfully.
	BuildCompleted BuildStatus = "completed"
	// BuildCompletedWithIssues indicates the build finished but some tasks
	// failed permanently or critical issues remain open.
	BuildCompletedWithIssues BuildStatus = "completed_with_issues"
	// BuildFailed indicates the build could not produce a usable result.
	BuildFailed BuildStatus = "failed"
	// BuildTimeout indicates the overall build timeout elapsed first.
	BuildTimeout BuildStatus = "timeout"
)

// Valid returns true if the status is a known value.
func (s BuildStatus) Valid() bool {
	switch s {
	case BuildCompleted, BuildCompletedWithIssues, BuildFailed, BuildTimeout:
		return true
	default:
		return false
	}
}

// TaskOutcome summarizes one task's final state for the build report.
type TaskOutcome struct {
	// TaskID identifies the task.
	TaskID string `json:"task_id"`
	// Role is the specialist role that executed the task.
	Role AgentRole `json:"role"`
	// Title is the task title.
	Title string `json:"title"`
	// Status is the task's terminal status.
	Status TaskStatus `json:"status"`
	// Retries is how many times the task was re-dispatched.
	Retries int `json:"retries"`
	// Error is the failure message for failed tasks.
	Error string `json:"error,omitempty"`
}

// BuildReport is the aggregated result of a project build. It is the sole
// hand-off to any presentation layer and is always returned, even on
// failure or timeout.
type BuildReport struct {
	// ProjectID identifies the built project.
	ProjectID string `json:"project_id"`
	// ProjectName is the project name.
	ProjectName string `json:"project_name"`
	// Status is the overall build outcome.
	Status BuildStatus `json:"status"`
	// FilesCreated is the number of distinct files registered.
	FilesCreated int `json:"files_created"`
	// ArchitectureDecisions is the number of recorded design decisions.
	ArchitectureDecisions int `json:"architecture_decisions"`
	// SecurityFindings lists findings from the security review.
	SecurityFindings []SecurityFinding `json:"security_findings,omitempty"`
	// TestResults maps test suite names to outcome summaries.
	TestResults map[string]string `json:"test_results,omitempty"`
	// Documentation lists produced documentation file paths.
	Documentation []string `json:"documentation,omitempty"`
	// DeploymentConfig holds the deployment configuration summary.
	DeploymentConfig map[string]string `json:"deployment_config,omitempty"`
	// Tasks summarizes every planned task's outcome.
	Tasks []TaskOutcome `json:"tasks,omitempty"`
	// OpenIssues is the number of issues not resolved by build end.
	OpenIssues int `json:"open_issues"`
	// StartedAt is when the build began.
	StartedAt time.Time `json:"started_at"`
	// Duration is how long the build ran.
	Duration time.Duration `json:"duration"`
}
