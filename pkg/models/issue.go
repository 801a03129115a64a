package models

import "time"

// IssueSeverity ranks how serious an issue is.
type IssueSeverity string

const (
	// SeverityLow indicates a cosmetic or advisory issue.
	SeverityLow IssueSeverity = "low"
	// SeverityMedium indicates an issue that should be fixed before release.
	SeverityMedium IssueSeverity = "medium"
	// SeverityHigh indicates an issue that blocks part of the build.
	SeverityHigh IssueSeverity = "high"
	// SeverityCritical indicates an issue that pauses phase advancement.
	SeverityCritical IssueSeverity = "critical"
)

// Valid returns true if the severity is a known value.
func (s IssueSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// IssueStatus tracks an issue through its resolution lifecycle.
// The only allowed transitions are open -> in_progress -> resolved.
type IssueStatus string

const (
	// IssueOpen indicates the issue has been reported but not claimed.
	IssueOpen IssueStatus = "open"
	// IssueInProgress indicates an agent is working on a fix.
	IssueInProgress IssueStatus = "in_progress"
	// IssueResolved indicates the fix was verified.
	IssueResolved IssueStatus = "resolved"
)

// Valid returns true if the status is a known value.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if moving from s to next is an allowed
// forward transition.
func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	switch s {
	case IssueOpen:
		return next == IssueInProgress
	case IssueInProgress:
		return next == IssueResolved
	default:
		return false
	}
}

// Issue is a structured record of a problem detected during a build.
type Issue struct {
	// ID is the unique identifier for this issue.
	ID string `json:"id"`
	// ProjectID identifies the project the issue belongs to.
	ProjectID string `json:"project_id"`
	// ReportedBy is the ID of the reporting agent.
	ReportedBy string `json:"reported_by"`
	// Type names the class of issue (e.g. "tool_failure", "generation_failure").
	Type string `json:"type"`
	// Severity is fixed at creation and never changes.
	Severity IssueSeverity `json:"severity"`
	// Description explains the issue.
	Description string `json:"description"`
	// AffectedFiles lists file paths involved, if known.
	AffectedFiles []string `json:"affected_files,omitempty"`
	// Suggestions lists proposed fixes.
	Suggestions []string `json:"suggestions,omitempty"`
	// Status is the resolution state.
	Status IssueStatus `json:"status"`
	// ClaimedBy is the ID of the agent working the fix, once claimed.
	ClaimedBy string `json:"claimed_by,omitempty"`
	// ReportedAt is when the issue was created.
	ReportedAt time.Time `json:"reported_at"`
}
