package orchestrator

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appswarm/appswarm/pkg/models"
)

// rolePhases maps each specialist role to the build phase it runs in.
var rolePhases = map[models.AgentRole]models.ProjectPhase{
	models.RoleArchitecture:   models.PhaseArchitecture,
	models.RoleImplementation: models.PhaseImplementation,
	models.RoleTesting:        models.PhaseTesting,
	models.RolePerformance:    models.PhaseTesting,
	models.RoleSecurity:       models.PhaseSecurityReview,
	models.RoleDocumentation:  models.PhaseDocumentation,
	models.RoleDevOps:         models.PhaseDeploymentPrep,
}

// securityKeywords are requirement markers that pull a security review
// into the plan.
var securityKeywords = []string{"auth", "login", "password", "payment", "encrypt", "personal data", "data"}

// performanceKeywords are requirement markers that pull a performance
// analysis into the plan.
var performanceKeywords = []string{"performance", "speed", "scale", "fast", "latency"}

// Decompose turns a project into its task plan. Architecture,
// implementation, and documentation are always planned; testing is
// planned whenever requirements exist; security, performance, and devops
// are planned when the requirements or build request call for them.
func Decompose(project *models.Project, platforms []string, ciSystem string) []*models.Task {
	now := time.Now()
	text := strings.ToLower(strings.Join(project.Requirements, "\n"))

	newTask := func(role models.AgentRole, title, description string, dependsOn ...string) *models.Task {
		return &models.Task{
			ID:          uuid.NewString(),
			ProjectID:   project.ID,
			Role:        role,
			Phase:       rolePhases[role],
			Title:       title,
			Description: description,
			Status:      models.TaskStatusPending,
			DependsOn:   dependsOn,
			Platforms:   platforms,
			CISystem:    ciSystem,
			CreatedAt:   now,
		}
	}

	arch := newTask(models.RoleArchitecture,
		"Design application architecture",
		"Produce the architecture outline and record design decisions for "+project.Name)
	impl := newTask(models.RoleImplementation,
		"Implement application modules",
		"Write the application source for every planned feature", arch.ID)

	plan := []*models.Task{arch, impl}

	if len(project.Requirements) > 0 {
		plan = append(plan, newTask(models.RoleTesting,
			"Write and run tests",
			"Cover every implemented module with tests and record suite outcomes", impl.ID))
	}
	if containsAny(text, securityKeywords) {
		plan = append(plan, newTask(models.RoleSecurity,
			"Review security posture",
			"Review authentication, storage, and data handling surfaces", impl.ID))
	}
	if containsAny(text, performanceKeywords) {
		plan = append(plan, newTask(models.RolePerformance,
			"Analyze performance",
			"Identify hot spots and record performance metrics", impl.ID))
	}
	if ciSystem != "" {
		plan = append(plan, newTask(models.RoleDevOps,
			"Prepare deployment pipeline",
			"Produce CI configuration for the requested platforms", impl.ID))
	}
	plan = append(plan, newTask(models.RoleDocumentation,
		"Write project documentation",
		"Produce the README and supporting documentation", impl.ID))

	return plan
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
