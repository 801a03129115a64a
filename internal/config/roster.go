package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/appswarm/appswarm/pkg/models"
)

// AgentSpec describes one specialist agent in the roster.
type AgentSpec struct {
	// Role is the specialist role the agent fills.
	Role models.AgentRole `yaml:"role"`
	// Name is the display name of the agent.
	Name string `yaml:"name"`
	// Capabilities lists what the agent declares it can do.
	Capabilities []string `yaml:"capabilities"`
}

// Roster is the full set of specialist agents the swarm runs.
type Roster struct {
	Agents []AgentSpec `yaml:"agents"`
}

// DefaultRoster returns the built-in agent roster covering every
// specialist role.
func DefaultRoster() *Roster {
	return &Roster{Agents: []AgentSpec{
		{Role: models.RoleArchitecture, Name: "Architecture Agent",
			Capabilities: []string{"system_design", "state_management", "project_structure"}},
		{Role: models.RoleImplementation, Name: "Implementation Agent",
			Capabilities: []string{"code_generation", "ui_implementation", "api_integration"}},
		{Role: models.RoleTesting, Name: "Testing Agent",
			Capabilities: []string{"unit_testing", "widget_testing", "integration_testing"}},
		{Role: models.RoleSecurity, Name: "Security Agent",
			Capabilities: []string{"vulnerability_scanning", "secure_storage", "auth_review"}},
		{Role: models.RolePerformance, Name: "Performance Agent",
			Capabilities: []string{"profiling", "startup_analysis", "memory_analysis"}},
		{Role: models.RoleDevOps, Name: "DevOps Agent",
			Capabilities: []string{"ci_configuration", "build_pipelines", "release_signing"}},
		{Role: models.RoleDocumentation, Name: "Documentation Agent",
			Capabilities: []string{"readme_generation", "api_docs", "setup_guides"}},
		{Role: models.RoleQualityAssurance, Name: "Quality Assurance Agent",
			Capabilities: []string{"issue_triage", "fix_verification", "report_review"}},
	}}
}

// LoadRoster reads an agent roster from a YAML file. A missing path
// returns the default roster.
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return DefaultRoster(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRoster(), nil
		}
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}

	roster := &Roster{}
	if err := yaml.Unmarshal(data, roster); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	if len(roster.Agents) == 0 {
		return nil, fmt.Errorf("roster %s defines no agents", path)
	}
	for _, a := range roster.Agents {
		if a.Role == "" {
			return nil, fmt.Errorf("roster %s has an agent without a role", path)
		}
	}
	return roster, nil
}

// Spec returns the roster entry for a role, or false if absent.
func (r *Roster) Spec(role models.AgentRole) (AgentSpec, bool) {
	for _, a := range r.Agents {
		if a.Role == role {
			return a, true
		}
	}
	return AgentSpec{}, false
}
