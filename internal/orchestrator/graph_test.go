package orchestrator

import (
	"errors"
	"testing"

	"github.com/appswarm/appswarm/pkg/models"
)

func task(id string, role models.AgentRole, deps ...string) *models.Task {
	return &models.Task{
		ID:        id,
		Role:      role,
		Phase:     rolePhases[role],
		Status:    models.TaskStatusPending,
		DependsOn: deps,
	}
}

func TestNewTaskGraphRejectsUnknownDependency(t *testing.T) {
	_, err := NewTaskGraph([]*models.Task{task("a", models.RoleArchitecture, "ghost")})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestNewTaskGraphRejectsCycle(t *testing.T) {
	a := task("a", models.RoleArchitecture, "b")
	b := task("b", models.RoleImplementation, "a")
	_, err := NewTaskGraph([]*models.Task{a, b})
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("err = %v, want ErrCycleDetected", err)
	}
}

func TestReadyRespectsDependenciesAndPhase(t *testing.T) {
	a := task("a", models.RoleArchitecture)
	b := task("b", models.RoleImplementation, "a")
	g, err := NewTaskGraph([]*models.Task{a, b})
	if err != nil {
		t.Fatal(err)
	}

	ready := g.Ready(models.PhaseArchitecture)
	if len(ready) != 1 || ready[0].ID != "a" {
		t.Fatalf("ready = %v, want [a]", ready)
	}
	// b's phase has nothing ready until a completes.
	if got := g.Ready(models.PhaseImplementation); len(got) != 0 {
		t.Fatalf("implementation ready too early: %v", got)
	}

	g.MarkDone("a")
	ready = g.Ready(models.PhaseImplementation)
	if len(ready) != 1 || ready[0].ID != "b" {
		t.Fatalf("ready after MarkDone = %v, want [b]", ready)
	}
}

func TestReadyOrdersByDispatchPriority(t *testing.T) {
	// testing and performance share the testing phase; security outranks
	// testing but lives in its own phase.
	perf := task("p", models.RolePerformance)
	test := task("t", models.RoleTesting)
	g, err := NewTaskGraph([]*models.Task{perf, test})
	if err != nil {
		t.Fatal(err)
	}

	ready := g.Ready(models.PhaseTesting)
	if len(ready) != 2 {
		t.Fatalf("ready = %d tasks, want 2", len(ready))
	}
	if ready[0].Role != models.RoleTesting || ready[1].Role != models.RolePerformance {
		t.Errorf("order = [%s %s], want testing before performance", ready[0].Role, ready[1].Role)
	}
}

func TestMarkFailedSkipsDependentsTransitively(t *testing.T) {
	a := task("a", models.RoleArchitecture)
	b := task("b", models.RoleImplementation, "a")
	c := task("c", models.RoleTesting, "b")
	d := task("d", models.RoleDocumentation)
	g, err := NewTaskGraph([]*models.Task{a, b, c, d})
	if err != nil {
		t.Fatal(err)
	}

	a.Status = models.TaskStatusFailed
	skipped := g.MarkFailed("a")
	if len(skipped) != 2 {
		t.Fatalf("skipped %d tasks, want 2", len(skipped))
	}
	if b.Status != models.TaskStatusSkipped || c.Status != models.TaskStatusSkipped {
		t.Errorf("dependents not skipped: b=%s c=%s", b.Status, c.Status)
	}
	if d.Status != models.TaskStatusPending {
		t.Errorf("independent task skipped: %s", d.Status)
	}
}

func TestPhaseSettledAndCounts(t *testing.T) {
	a := task("a", models.RoleTesting)
	b := task("b", models.RolePerformance)
	g, err := NewTaskGraph([]*models.Task{a, b})
	if err != nil {
		t.Fatal(err)
	}

	if g.PhaseSettled(models.PhaseTesting) {
		t.Error("phase settled with pending tasks")
	}
	a.Status = models.TaskStatusDone
	terminal, total := g.PhaseCounts(models.PhaseTesting)
	if terminal != 1 || total != 2 {
		t.Errorf("counts = %d/%d, want 1/2", terminal, total)
	}
	b.Status = models.TaskStatusSkipped
	if !g.PhaseSettled(models.PhaseTesting) {
		t.Error("phase not settled with all tasks terminal")
	}
}
