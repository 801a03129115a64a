package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/appswarm/appswarm/internal/llm"
	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/internal/tools"
	"github.com/appswarm/appswarm/pkg/models"
)

func newTestDeps(t *testing.T, gen llm.Generator) (Deps, string) {
	t.Helper()
	shared := state.New(state.DefaultMaxRecentMessages)
	mgr := tools.NewManager(time.Second)
	mgr.Register(tools.NewFileTool(shared, t.TempDir()))
	mgr.Register(tools.NewAnalysisTool(shared))

	projectID, err := shared.CreateProject("notes", "a note-taking app",
		[]string{"offline sync", "user login with password"},
		[]string{"notes", "search"})
	if err != nil {
		t.Fatal(err)
	}
	return Deps{Shared: shared, Tools: mgr, Generator: gen}, projectID
}

func TestArchitectureHandlerRecordsDecisions(t *testing.T) {
	gen := llm.NewScriptedGenerator("Riverpod with a layered architecture.\nDetails follow.")
	deps, projectID := newTestDeps(t, gen)
	h := &ArchitectureHandler{deps}

	summary, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(summary, "architecture decisions") {
		t.Errorf("summary = %q", summary)
	}

	project, err := deps.Shared.GetProjectState(projectID)
	if err != nil {
		t.Fatal(err)
	}
	// Two base decisions plus one per feature.
	if len(project.ArchitectureDecisions) != 4 {
		t.Errorf("decisions = %d, want 4", len(project.ArchitectureDecisions))
	}
	if _, ok := project.Files["docs/architecture.md"]; !ok {
		t.Error("architecture doc not registered")
	}
}

func TestArchitectureHandlerCollaborates(t *testing.T) {
	gen := llm.NewScriptedGenerator("design")
	deps, projectID := newTestDeps(t, gen)
	h := &ArchitectureHandler{deps}

	// Before design: graceful placeholder.
	reply, err := h.Collaborate(context.Background(), "implementation", models.CollaborationPayload{ProjectID: projectID})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "architecture not yet designed" {
		t.Errorf("reply = %q", reply)
	}

	if _, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()}); err != nil {
		t.Fatal(err)
	}
	reply, err = h.Collaborate(context.Background(), "implementation", models.CollaborationPayload{ProjectID: projectID})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "design" {
		t.Errorf("reply = %q, want the design doc", reply)
	}
}

func TestImplementationHandlerWritesModules(t *testing.T) {
	gen := llm.NewScriptedGenerator("void main() {}")
	deps, projectID := newTestDeps(t, gen)
	h := &ImplementationHandler{Deps: deps}

	summary, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()})
	if err != nil {
		t.Fatal(err)
	}
	if summary != "implemented 4 modules" {
		t.Errorf("summary = %q", summary)
	}

	project, _ := deps.Shared.GetProjectState(projectID)
	for _, path := range []string{"lib/main.dart", "lib/app.dart", "lib/features/notes.dart", "lib/features/search.dart"} {
		if _, ok := project.Files[path]; !ok {
			t.Errorf("missing %s", path)
		}
	}
}

func TestImplementationHandlerPropagatesGenerationError(t *testing.T) {
	gen := llm.NewScriptedGenerator("code").FailNext(1)
	deps, projectID := newTestDeps(t, gen)
	h := &ImplementationHandler{Deps: deps}

	if _, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()}); err == nil {
		t.Fatal("expected generation error to propagate")
	}
}

func TestTestingHandlerCoversSourceFiles(t *testing.T) {
	gen := llm.NewScriptedGenerator("test('works', () {});")
	deps, projectID := newTestDeps(t, gen)

	deps.Shared.AddProjectFile(projectID, "lib/main.dart", "void main() {}")
	deps.Shared.AddProjectFile(projectID, "lib/features/notes.dart", "class Notes {}")
	deps.Shared.AddProjectFile(projectID, "docs/architecture.md", "not source")

	h := &TestingHandler{deps}
	summary, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()})
	if err != nil {
		t.Fatal(err)
	}
	if summary != "wrote 2 test suites" {
		t.Errorf("summary = %q", summary)
	}

	project, _ := deps.Shared.GetProjectState(projectID)
	if _, ok := project.Files["test/main_test.dart"]; !ok {
		t.Error("missing test/main_test.dart")
	}
	if _, ok := project.Files["test/features/notes_test.dart"]; !ok {
		t.Error("missing test/features/notes_test.dart")
	}
	if project.TestResults["unit"] == "" {
		t.Error("unit test result not recorded")
	}
	if project.TestResults["analysis"] == "" {
		t.Error("analysis result not recorded")
	}
}

func TestSecurityHandlerFindsKeywordSurfaces(t *testing.T) {
	gen := llm.NewScriptedGenerator("review text")
	deps, projectID := newTestDeps(t, gen)
	h := &SecurityHandler{deps}

	if _, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()}); err != nil {
		t.Fatal(err)
	}

	project, _ := deps.Shared.GetProjectState(projectID)
	categories := make(map[string]bool)
	for _, f := range project.SecurityFindings {
		categories[f.Category] = true
		if f.Severity != models.SeverityMedium {
			t.Errorf("finding severity = %v, want medium", f.Severity)
		}
	}
	// "user login with password" trips auth; "offline sync" trips transport.
	if !categories["auth"] {
		t.Error("expected an auth finding")
	}
	if !categories["transport"] {
		t.Error("expected a transport finding")
	}
	if _, ok := project.Files["docs/security_review.md"]; !ok {
		t.Error("security review doc not registered")
	}
}

func TestPerformanceHandlerRecordsMetrics(t *testing.T) {
	gen := llm.NewScriptedGenerator("startup time dominates.\nmore detail")
	deps, projectID := newTestDeps(t, gen)
	deps.Shared.AddProjectFile(projectID, "lib/main.dart", "void main() {}")

	h := &PerformanceHandler{deps}
	if _, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()}); err != nil {
		t.Fatal(err)
	}

	project, _ := deps.Shared.GetProjectState(projectID)
	if project.PerformanceMetrics["analysis_summary"] != "startup time dominates." {
		t.Errorf("analysis_summary = %q", project.PerformanceMetrics["analysis_summary"])
	}
	if project.PerformanceMetrics["source_files"] == "" {
		t.Error("expected source stats metrics")
	}
}

func TestDevOpsHandlerWritesPipeline(t *testing.T) {
	gen := llm.NewScriptedGenerator("jobs: build")
	deps, projectID := newTestDeps(t, gen)
	h := &DevOpsHandler{deps}

	summary, err := h.Execute(context.Background(), models.Task{
		ProjectID: projectID,
		Role:      h.Role(),
		Platforms: []string{"android"},
		CISystem:  "github_actions",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(summary, "github_actions") {
		t.Errorf("summary = %q", summary)
	}

	project, _ := deps.Shared.GetProjectState(projectID)
	if _, ok := project.Files[".github/workflows/build.yml"]; !ok {
		t.Error("pipeline file not registered")
	}
	if project.DeploymentConfig["platforms"] != "android" {
		t.Errorf("platforms = %q", project.DeploymentConfig["platforms"])
	}
	if project.DeploymentConfig["ci_system"] != "github_actions" {
		t.Errorf("ci_system = %q", project.DeploymentConfig["ci_system"])
	}
}

func TestDevOpsHandlerDefaults(t *testing.T) {
	gen := llm.NewScriptedGenerator("pipeline")
	deps, projectID := newTestDeps(t, gen)
	h := &DevOpsHandler{deps}

	if _, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()}); err != nil {
		t.Fatal(err)
	}
	project, _ := deps.Shared.GetProjectState(projectID)
	if project.DeploymentConfig["platforms"] != "android,ios" {
		t.Errorf("default platforms = %q", project.DeploymentConfig["platforms"])
	}
}

func TestDocumentationHandlerWritesDocs(t *testing.T) {
	gen := llm.NewScriptedGenerator("# notes\n\nA note-taking app.")
	deps, projectID := newTestDeps(t, gen)
	h := &DocumentationHandler{deps}

	if _, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()}); err != nil {
		t.Fatal(err)
	}

	project, _ := deps.Shared.GetProjectState(projectID)
	if project.Documentation["README.md"] == "" {
		t.Error("README not recorded in documentation set")
	}
	if _, ok := project.Files["README.md"]; !ok {
		t.Error("README not registered as a project file")
	}
	if project.Documentation["docs/setup.md"] == "" {
		t.Error("setup doc not recorded")
	}
}

func TestQualityAssuranceHandlerTriagesLowIssues(t *testing.T) {
	gen := llm.NewScriptedGenerator("")
	deps, projectID := newTestDeps(t, gen)

	deps.Shared.ReportIssue(projectID, models.Issue{
		ReportedBy: "testing", Type: "analysis_finding",
		Severity: models.SeverityLow, Description: "todo markers",
	})
	deps.Shared.ReportIssue(projectID, models.Issue{
		ReportedBy: "implementation", Type: "task_failure",
		Severity: models.SeverityHigh, Description: "broken build",
	})

	h := &QualityAssuranceHandler{deps}
	summary, err := h.Execute(context.Background(), models.Task{ProjectID: projectID, Role: h.Role()})
	if err != nil {
		t.Fatal(err)
	}
	if summary != "triaged 2 issues, closed 1 low-severity" {
		t.Errorf("summary = %q", summary)
	}
	if got := deps.Shared.OpenIssueCount(projectID); got != 1 {
		t.Errorf("open issues after triage = %d, want 1", got)
	}
}

func TestNewHandlersCoversEveryRole(t *testing.T) {
	gen := llm.NewScriptedGenerator("")
	deps, _ := newTestDeps(t, gen)
	handlers := NewHandlers(deps)

	for _, role := range models.SpecialistRoles {
		h, ok := handlers[role]
		if !ok {
			t.Errorf("no handler for role %s", role)
			continue
		}
		if h.Role() != role {
			t.Errorf("handler for %s reports role %s", role, h.Role())
		}
	}
	if _, ok := handlers[models.RoleQualityAssurance]; !ok {
		t.Error("no handler for quality_assurance")
	}
}
