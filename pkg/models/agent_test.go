package models

import "testing"

func TestAgentStatusValid(t *testing.T) {
	valid := []AgentStatus{
		AgentStatusIdle, AgentStatusWorking, AgentStatusWaiting,
		AgentStatusCompleted, AgentStatusError,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []AgentStatus{"", "running", "IDLE", "done"}
	for _, s := range invalid {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestDispatchPriorityOrder(t *testing.T) {
	// Architecture must outrank implementation, which must outrank the rest.
	if RoleArchitecture.DispatchPriority() >= RoleImplementation.DispatchPriority() {
		t.Error("architecture should dispatch before implementation")
	}
	if RoleImplementation.DispatchPriority() >= RoleSecurity.DispatchPriority() {
		t.Error("implementation should dispatch before security")
	}
	if RoleSecurity.DispatchPriority() >= RoleTesting.DispatchPriority() {
		t.Error("security should dispatch before testing")
	}
	if RoleDevOps.DispatchPriority() >= RoleDocumentation.DispatchPriority() {
		t.Error("devops should dispatch before documentation")
	}
}

func TestDispatchPriorityUnknownRoleSortsLast(t *testing.T) {
	unknown := AgentRole("mystery")
	for _, r := range SpecialistRoles {
		if unknown.DispatchPriority() <= r.DispatchPriority() {
			t.Errorf("unknown role should sort after %q", r)
		}
	}
}
