package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/appswarm/appswarm/internal/llm"
	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/internal/tools"
	"github.com/appswarm/appswarm/pkg/models"
)

// Deps bundles the capabilities every specialist handler needs.
type Deps struct {
	// Shared is the shared state store.
	Shared *state.SharedState
	// Tools is the capability registry.
	Tools *tools.Manager
	// Generator is the text-generation capability.
	Generator llm.Generator
}

// writeFile runs the file tool and converts a failed result into an error.
func (d Deps) writeFile(ctx context.Context, projectID, path, content string) error {
	res := d.Tools.Execute(ctx, "file", "write", tools.Params{
		"project_id": projectID,
		"path":       path,
		"content":    content,
	})
	if !res.OK() {
		return fmt.Errorf("write %s: %s", path, res.Error)
	}
	return nil
}

// ArchitectureHandler designs the application structure and records
// architecture decisions.
type ArchitectureHandler struct {
	Deps
}

// Role implements Handler.
func (h *ArchitectureHandler) Role() models.AgentRole { return models.RoleArchitecture }

// Execute implements Handler.
func (h *ArchitectureHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	project, err := h.Shared.GetProjectState(task.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}

	design, err := h.Generator.Generate(ctx, llm.Request{
		SystemPrompt: "You are a senior mobile application architect.",
		Prompt: fmt.Sprintf(
			"Design the application architecture for %q.\nDescription: %s\nRequirements:\n%s",
			project.Name, project.Description, bulletList(project.Requirements)),
		Context: map[string]string{"features": strings.Join(project.Features, ", ")},
	})
	if err != nil {
		return "", fmt.Errorf("architecture design: %w", err)
	}

	decisions := []models.ArchitectureDecision{
		{Title: "Application layering", Rationale: "Presentation, domain, and data layers per feature", DecidedBy: string(h.Role())},
		{Title: "State management", Rationale: firstLine(design), DecidedBy: string(h.Role())},
	}
	for _, feature := range project.Features {
		decisions = append(decisions, models.ArchitectureDecision{
			Title:     "Module boundary: " + feature,
			Rationale: "Feature isolated behind its own module interface",
			DecidedBy: string(h.Role()),
		})
	}
	for _, d := range decisions {
		if err := h.Shared.AddArchitectureDecision(task.ProjectID, d); err != nil {
			return "", err
		}
	}

	if err := h.writeFile(ctx, task.ProjectID, "docs/architecture.md", design); err != nil {
		return "", err
	}
	return fmt.Sprintf("recorded %d architecture decisions", len(decisions)), nil
}

// Collaborate implements Collaborator, answering outline requests from
// the implementation agent.
func (h *ArchitectureHandler) Collaborate(ctx context.Context, from string, req models.CollaborationPayload) (string, error) {
	project, err := h.Shared.GetProjectState(req.ProjectID)
	if err != nil {
		return "", err
	}
	outline, ok := project.Files["docs/architecture.md"]
	if !ok {
		return "architecture not yet designed", nil
	}
	return outline, nil
}

// ImplementationHandler writes the application source files.
type ImplementationHandler struct {
	Deps
	// Agent allows mid-task collaboration with the architecture agent.
	Agent *Agent
}

// Role implements Handler.
func (h *ImplementationHandler) Role() models.AgentRole { return models.RoleImplementation }

// Execute implements Handler.
func (h *ImplementationHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	project, err := h.Shared.GetProjectState(task.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}

	outline := ""
	if h.Agent != nil {
		if reply, ok := h.Agent.RequestCollaboration(ctx, string(models.RoleArchitecture), models.CollaborationPayload{
			Topic:     "architecture_outline",
			ProjectID: task.ProjectID,
		}); ok {
			outline = reply
		}
	}

	units := append([]string{"main", "app"}, project.Features...)
	for _, unit := range units {
		code, err := h.Generator.Generate(ctx, llm.Request{
			SystemPrompt: "You are a mobile application developer. Reply with source code only.",
			Prompt:       fmt.Sprintf("Implement the %q module of %q.\nRequirements:\n%s", unit, project.Name, bulletList(project.Requirements)),
			Context:      map[string]string{"architecture": outline},
		})
		if err != nil {
			return "", fmt.Errorf("implement %s: %w", unit, err)
		}
		path := "lib/" + unit + ".dart"
		if unit != "main" && unit != "app" {
			path = "lib/features/" + unit + ".dart"
		}
		if err := h.writeFile(ctx, task.ProjectID, path, code); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("implemented %d modules", len(units)), nil
}

// TestingHandler writes tests for every implemented source file and
// records suite outcomes.
type TestingHandler struct {
	Deps
}

// Role implements Handler.
func (h *TestingHandler) Role() models.AgentRole { return models.RoleTesting }

// Execute implements Handler.
func (h *TestingHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	project, err := h.Shared.GetProjectState(task.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}

	written := 0
	for path := range project.Files {
		if !strings.HasPrefix(path, "lib/") {
			continue
		}
		test, err := h.Generator.Generate(ctx, llm.Request{
			SystemPrompt: "You are a mobile test engineer. Reply with test code only.",
			Prompt:       fmt.Sprintf("Write unit tests for %s in project %q.", path, project.Name),
		})
		if err != nil {
			return "", fmt.Errorf("tests for %s: %w", path, err)
		}
		testPath := "test/" + strings.TrimSuffix(strings.TrimPrefix(path, "lib/"), ".dart") + "_test.dart"
		if err := h.writeFile(ctx, task.ProjectID, testPath, test); err != nil {
			return "", err
		}
		written++
	}

	if err := h.Shared.SetTestResult(task.ProjectID, "unit", fmt.Sprintf("%d suites generated", written)); err != nil {
		return "", err
	}

	// Static scan over everything written so far.
	scan := h.Tools.Execute(ctx, "analysis", "scan", tools.Params{"project_id": task.ProjectID})
	if scan.Status == tools.StatusWarning && scan.Output != "" {
		h.Shared.ReportIssue(task.ProjectID, models.Issue{
			ReportedBy:  string(h.Role()),
			Type:        "analysis_finding",
			Severity:    models.SeverityLow,
			Description: scan.Output,
		})
	}
	h.Shared.SetTestResult(task.ProjectID, "analysis", string(scan.Status))

	return fmt.Sprintf("wrote %d test suites", written), nil
}

// SecurityHandler reviews requirements and files for security-sensitive
// surfaces and records findings.
type SecurityHandler struct {
	Deps
}

// Role implements Handler.
func (h *SecurityHandler) Role() models.AgentRole { return models.RoleSecurity }

// securityTriggers maps requirement keywords to finding categories.
var securityTriggers = map[string]string{
	"auth":     "auth",
	"login":    "auth",
	"password": "auth",
	"payment":  "payments",
	"encrypt":  "storage",
	"storage":  "storage",
	"personal": "privacy",
	"data":     "privacy",
	"sync":     "transport",
}

// Execute implements Handler.
func (h *SecurityHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	project, err := h.Shared.GetProjectState(task.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}

	review, err := h.Generator.Generate(ctx, llm.Request{
		SystemPrompt: "You are a mobile security reviewer.",
		Prompt: fmt.Sprintf("Review the security posture of %q.\nRequirements:\n%s",
			project.Name, bulletList(project.Requirements)),
	})
	if err != nil {
		return "", fmt.Errorf("security review: %w", err)
	}

	seen := make(map[string]bool)
	count := 0
	for _, req := range project.Requirements {
		lower := strings.ToLower(req)
		for keyword, category := range securityTriggers {
			if !strings.Contains(lower, keyword) || seen[category] {
				continue
			}
			seen[category] = true
			count++
			if err := h.Shared.AddSecurityFinding(task.ProjectID, models.SecurityFinding{
				Category:    category,
				Description: fmt.Sprintf("requirement %q touches %s; review %s handling", req, category, category),
				Severity:    models.SeverityMedium,
				FoundBy:     string(h.Role()),
			}); err != nil {
				return "", err
			}
		}
	}

	if err := h.writeFile(ctx, task.ProjectID, "docs/security_review.md", review); err != nil {
		return "", err
	}
	return fmt.Sprintf("recorded %d security findings", count), nil
}

// PerformanceHandler records performance analysis results.
type PerformanceHandler struct {
	Deps
}

// Role implements Handler.
func (h *PerformanceHandler) Role() models.AgentRole { return models.RolePerformance }

// Execute implements Handler.
func (h *PerformanceHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	project, err := h.Shared.GetProjectState(task.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}

	analysis, err := h.Generator.Generate(ctx, llm.Request{
		SystemPrompt: "You are a mobile performance engineer.",
		Prompt: fmt.Sprintf("Identify the performance hot spots of %q given its %d source files.",
			project.Name, project.FilesCreated()),
	})
	if err != nil {
		return "", fmt.Errorf("performance analysis: %w", err)
	}

	stats := h.Tools.Execute(ctx, "analysis", "stats", tools.Params{"project_id": task.ProjectID})
	for k, v := range stats.Data {
		h.Shared.SetPerformanceMetric(task.ProjectID, "source_"+k, v)
	}
	if err := h.Shared.SetPerformanceMetric(task.ProjectID, "analysis_summary", firstLine(analysis)); err != nil {
		return "", err
	}
	return "performance analysis recorded", nil
}

// DevOpsHandler produces CI and deployment configuration.
type DevOpsHandler struct {
	Deps
}

// Role implements Handler.
func (h *DevOpsHandler) Role() models.AgentRole { return models.RoleDevOps }

// Execute implements Handler.
func (h *DevOpsHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	ciSystem := task.CISystem
	if ciSystem == "" {
		ciSystem = "github_actions"
	}
	platforms := task.Platforms
	if len(platforms) == 0 {
		platforms = []string{"android", "ios"}
	}

	pipeline, err := h.Generator.Generate(ctx, llm.Request{
		SystemPrompt: "You are a release engineer. Reply with pipeline configuration only.",
		Prompt: fmt.Sprintf("Write a %s pipeline building for platforms: %s.",
			ciSystem, strings.Join(platforms, ", ")),
	})
	if err != nil {
		return "", fmt.Errorf("pipeline generation: %w", err)
	}

	path := "ci/build.yml"
	if ciSystem == "github_actions" {
		path = ".github/workflows/build.yml"
	}
	if err := h.writeFile(ctx, task.ProjectID, path, pipeline); err != nil {
		return "", err
	}
	if err := h.Shared.SetDeploymentConfig(task.ProjectID, map[string]string{
		"ci_system": ciSystem,
		"platforms": strings.Join(platforms, ","),
		"pipeline":  path,
	}); err != nil {
		return "", err
	}
	return "deployment configuration ready for " + ciSystem, nil
}

// DocumentationHandler produces the project documentation set.
type DocumentationHandler struct {
	Deps
}

// Role implements Handler.
func (h *DocumentationHandler) Role() models.AgentRole { return models.RoleDocumentation }

// Execute implements Handler.
func (h *DocumentationHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	project, err := h.Shared.GetProjectState(task.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load project: %w", err)
	}

	readme, err := h.Generator.Generate(ctx, llm.Request{
		SystemPrompt: "You are a technical writer.",
		Prompt: fmt.Sprintf("Write the README for %q.\nDescription: %s\nFeatures: %s",
			project.Name, project.Description, strings.Join(project.Features, ", ")),
	})
	if err != nil {
		return "", fmt.Errorf("readme generation: %w", err)
	}

	docs := map[string]string{
		"README.md":     readme,
		"docs/setup.md": fmt.Sprintf("# %s setup\n\nSee README.md for an overview.\n", project.Name),
	}
	for path, content := range docs {
		if err := h.Shared.AddDocumentation(task.ProjectID, path, content); err != nil {
			return "", err
		}
		if err := h.writeFile(ctx, task.ProjectID, path, content); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("wrote %d documentation files", len(docs)), nil
}

// QualityAssuranceHandler triages open issues on request. It is not
// scheduled as a build task; it collaborates with other agents and claims
// unowned issues so nothing ships silently broken.
type QualityAssuranceHandler struct {
	Deps
}

// Role implements Handler.
func (h *QualityAssuranceHandler) Role() models.AgentRole { return models.RoleQualityAssurance }

// Execute implements Handler.
func (h *QualityAssuranceHandler) Execute(ctx context.Context, task models.Task) (string, error) {
	issues, err := h.Shared.GetProjectIssues(task.ProjectID, state.IssueFilter{Status: models.IssueOpen})
	if err != nil {
		return "", err
	}
	claimed := 0
	for _, issue := range issues {
		if issue.Severity == models.SeverityLow {
			if err := h.Shared.ClaimIssue(issue.ID, string(h.Role())); err == nil {
				h.Shared.ResolveIssue(issue.ID)
				claimed++
			}
		}
	}
	return fmt.Sprintf("triaged %d issues, closed %d low-severity", len(issues), claimed), nil
}

// Collaborate implements Collaborator, answering issue-count queries.
func (h *QualityAssuranceHandler) Collaborate(ctx context.Context, from string, req models.CollaborationPayload) (string, error) {
	return fmt.Sprintf("%d open issues", h.Shared.OpenIssueCount(req.ProjectID)), nil
}

// NewHandlers builds the full set of specialist handlers keyed by role.
// The implementation handler is wired to its agent afterwards via
// BindAgent so it can collaborate mid-task.
func NewHandlers(deps Deps) map[models.AgentRole]Handler {
	return map[models.AgentRole]Handler{
		models.RoleArchitecture:     &ArchitectureHandler{deps},
		models.RoleImplementation:   &ImplementationHandler{Deps: deps},
		models.RoleTesting:          &TestingHandler{deps},
		models.RoleSecurity:         &SecurityHandler{deps},
		models.RolePerformance:      &PerformanceHandler{deps},
		models.RoleDevOps:           &DevOpsHandler{deps},
		models.RoleDocumentation:    &DocumentationHandler{deps},
		models.RoleQualityAssurance: &QualityAssuranceHandler{deps},
	}
}

// BindAgent attaches the running agent to handlers that collaborate
// mid-task.
func BindAgent(h Handler, a *Agent) {
	if impl, ok := h.(*ImplementationHandler); ok {
		impl.Agent = a
	}
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
