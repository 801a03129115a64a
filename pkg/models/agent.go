// Package models defines the shared data types exchanged between the
// swarm coordinator, the orchestrator, and the specialist agents.
package models

import "time"

// AgentStatus represents the current state of an agent.
type AgentStatus string

const (
	// AgentStatusIdle indicates the agent is waiting for work.
	AgentStatusIdle AgentStatus = "idle"
	// AgentStatusWorking indicates the agent is actively executing a task.
	AgentStatusWorking AgentStatus = "working"
	// AgentStatusWaiting indicates the agent is blocked on a collaboration reply.
	AgentStatusWaiting AgentStatus = "waiting"
	// AgentStatusCompleted indicates the agent finished its current task.
	AgentStatusCompleted AgentStatus = "completed"
	// AgentStatusError indicates the agent encountered an error.
	AgentStatusError AgentStatus = "error"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusIdle, AgentStatusWorking, AgentStatusWaiting,
		AgentStatusCompleted, AgentStatusError:
		return true
	default:
		return false
	}
}

// AgentRole identifies a specialist agent role.
type AgentRole string

const (
	// RoleOrchestrator decomposes projects and schedules the other roles.
	RoleOrchestrator AgentRole = "orchestrator"
	// RoleArchitecture designs the application structure.
	RoleArchitecture AgentRole = "architecture"
	// RoleImplementation writes the application source files.
	RoleImplementation AgentRole = "implementation"
	// RoleTesting writes and runs tests.
	RoleTesting AgentRole = "testing"
	// RoleSecurity reviews the project for security issues.
	RoleSecurity AgentRole = "security"
	// RolePerformance analyzes performance characteristics.
	RolePerformance AgentRole = "performance"
	// RoleDevOps produces CI and deployment configuration.
	RoleDevOps AgentRole = "devops"
	// RoleDocumentation produces project documentation.
	RoleDocumentation AgentRole = "documentation"
	// RoleQualityAssurance aggregates issues and verifies fixes.
	RoleQualityAssurance AgentRole = "quality_assurance"
)

// SpecialistRoles lists every schedulable role in the fixed dispatch
// priority order used when multiple tasks become ready at once.
var SpecialistRoles = []AgentRole{
	RoleArchitecture,
	RoleImplementation,
	RoleSecurity,
	RoleTesting,
	RolePerformance,
	RoleDevOps,
	RoleDocumentation,
}

// DispatchPriority returns the tie-break rank for a role; lower dispatches
// first. Unknown roles sort last.
func (r AgentRole) DispatchPriority() int {
	for i, role := range SpecialistRoles {
		if role == r {
			return i
		}
	}
	return len(SpecialistRoles)
}

// AgentState is the registered status record for one agent.
type AgentState struct {
	// ID is the stable agent identifier, one per specialist role.
	ID string `json:"id"`
	// Status is the current state of the agent.
	Status AgentStatus `json:"status"`
	// CurrentTask describes what the agent is working on.
	CurrentTask string `json:"current_task,omitempty"`
	// Progress is the task progress fraction in [0.0, 1.0].
	Progress float64 `json:"progress"`
	// Capabilities lists the agent's declared capabilities.
	Capabilities []string `json:"capabilities,omitempty"`
	// LastUpdate is when the record was last written.
	LastUpdate time.Time `json:"last_update"`
}
