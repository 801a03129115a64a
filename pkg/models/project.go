package models

import "time"

// ProjectPhase represents the current phase of a project build.
type ProjectPhase string

const (
	// PhasePlanning indicates the project has been created but not decomposed.
	PhasePlanning ProjectPhase = "planning"
	// PhaseArchitecture indicates architecture design is in progress.
	PhaseArchitecture ProjectPhase = "architecture"
	// PhaseImplementation indicates feature implementation is in progress.
	PhaseImplementation ProjectPhase = "implementation"
	// PhaseTesting indicates test authoring and execution is in progress.
	PhaseTesting ProjectPhase = "testing"
	// PhaseSecurityReview indicates the security review is in progress.
	PhaseSecurityReview ProjectPhase = "security_review"
	// PhaseDocumentation indicates documentation is being produced.
	PhaseDocumentation ProjectPhase = "documentation"
	// PhaseDeploymentPrep indicates deployment configuration is being produced.
	PhaseDeploymentPrep ProjectPhase = "deployment_prep"
	// PhaseCompleted indicates the build finished cleanly.
	PhaseCompleted ProjectPhase = "completed"
	// PhaseCompletedWithIssues indicates the build finished with unresolved failures.
	PhaseCompletedWithIssues ProjectPhase = "completed_with_issues"
	// PhaseError indicates the build is paused on a critical failure.
	PhaseError ProjectPhase = "error"
)

// Valid returns true if the phase is a known value.
func (p ProjectPhase) Valid() bool {
	switch p {
	case PhasePlanning, PhaseArchitecture, PhaseImplementation, PhaseTesting,
		PhaseSecurityReview, PhaseDocumentation, PhaseDeploymentPrep,
		PhaseCompleted, PhaseCompletedWithIssues, PhaseError:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further phase transitions are allowed.
func (p ProjectPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCompletedWithIssues
}

// ActivePhases lists the build phases in execution order, excluding
// planning and the terminal states.
var ActivePhases = []ProjectPhase{
	PhaseArchitecture,
	PhaseImplementation,
	PhaseTesting,
	PhaseSecurityReview,
	PhaseDocumentation,
	PhaseDeploymentPrep,
}

// ArchitectureDecision records a single design decision made during the build.
type ArchitectureDecision struct {
	// Title is the short name of the decision.
	Title string `json:"title"`
	// Rationale explains why the decision was made.
	Rationale string `json:"rationale,omitempty"`
	// DecidedBy is the ID of the agent that recorded the decision.
	DecidedBy string `json:"decided_by"`
	// DecidedAt is when the decision was recorded.
	DecidedAt time.Time `json:"decided_at"`
}

// SecurityFinding records a single finding from the security review.
type SecurityFinding struct {
	// Category is the class of finding (e.g. "auth", "storage").
	Category string `json:"category"`
	// Description explains the finding.
	Description string `json:"description"`
	// Severity is the finding severity, reusing the issue severity scale.
	Severity IssueSeverity `json:"severity"`
	// FoundBy is the ID of the reporting agent.
	FoundBy string `json:"found_by"`
}

// Project represents a mobile application build coordinated by the swarm.
type Project struct {
	// ID is the unique identifier for this project.
	ID string `json:"id"`
	// Name is the project name.
	Name string `json:"name"`
	// Description provides detailed information about the project.
	Description string `json:"description,omitempty"`
	// Requirements is the ordered list of requirement strings.
	Requirements []string `json:"requirements,omitempty"`
	// Features is the ordered list of feature tags.
	Features []string `json:"features,omitempty"`
	// Phase is the current build phase.
	Phase ProjectPhase `json:"phase"`
	// Progress is the overall build progress in [0.0, 1.0].
	Progress float64 `json:"progress"`
	// Files maps created file paths to content snapshots.
	Files map[string]string `json:"files,omitempty"`
	// ArchitectureDecisions lists recorded design decisions.
	ArchitectureDecisions []ArchitectureDecision `json:"architecture_decisions,omitempty"`
	// SecurityFindings lists findings from the security review.
	SecurityFindings []SecurityFinding `json:"security_findings,omitempty"`
	// TestResults maps test suite names to outcome summaries.
	TestResults map[string]string `json:"test_results,omitempty"`
	// PerformanceMetrics maps metric names to measured values.
	PerformanceMetrics map[string]string `json:"performance_metrics,omitempty"`
	// Documentation maps documentation file paths to content snapshots.
	Documentation map[string]string `json:"documentation,omitempty"`
	// DeploymentConfig holds the deployment configuration summary.
	DeploymentConfig map[string]string `json:"deployment_config,omitempty"`
	// CreatedAt is when the project was created.
	CreatedAt time.Time `json:"created_at"`
}

// FilesCreated returns the number of distinct registered file paths.
func (p *Project) FilesCreated() int {
	return len(p.Files)
}

// ProjectSummary is a lightweight view of a project used by listings.
type ProjectSummary struct {
	// ID is the project identifier.
	ID string `json:"id"`
	// Name is the project name.
	Name string `json:"name"`
	// Description is the project description.
	Description string `json:"description,omitempty"`
	// Phase is the current build phase.
	Phase ProjectPhase `json:"phase"`
	// Progress is the overall build progress in [0.0, 1.0].
	Progress float64 `json:"progress"`
}

// ProjectStatus pairs a project summary with a snapshot of the agent
// fleet taken at the same time.
type ProjectStatus struct {
	// Project is the project's summary view.
	Project ProjectSummary `json:"project"`
	// Agents maps agent IDs to their status records.
	Agents map[string]AgentState `json:"agents"`
}
