package orchestrator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/appswarm/appswarm/pkg/models"
)

// ErrCycleDetected indicates a circular dependency in the task plan.
var ErrCycleDetected = errors.New("circular dependency detected")

// TaskGraph tracks the dependency order of a build plan. Tasks are nodes
// and edges point at the tasks they are blocked by.
type TaskGraph struct {
	tasks map[string]*models.Task
	deps  map[string][]string
	done  map[string]bool
}

// NewTaskGraph builds the graph from a plan. It fails on unknown
// dependency references and on cycles.
func NewTaskGraph(plan []*models.Task) (*TaskGraph, error) {
	g := &TaskGraph{
		tasks: make(map[string]*models.Task, len(plan)),
		deps:  make(map[string][]string, len(plan)),
		done:  make(map[string]bool),
	}
	for _, task := range plan {
		g.tasks[task.ID] = task
	}
	for _, task := range plan {
		for _, depID := range task.DependsOn {
			if _, ok := g.tasks[depID]; !ok {
				return nil, fmt.Errorf("task %s depends on unknown task %s", task.ID, depID)
			}
			g.deps[task.ID] = append(g.deps[task.ID], depID)
		}
	}
	if g.hasCycle() {
		return nil, ErrCycleDetected
	}
	return g, nil
}

// hasCycle runs a coloring DFS looking for back edges.
func (g *TaskGraph) hasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	colors := make(map[string]int, len(g.tasks))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = gray
		for _, depID := range g.deps[id] {
			switch colors[depID] {
			case gray:
				return true
			case white:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = black
		return false
	}

	for id := range g.tasks {
		if colors[id] == white && visit(id) {
			return true
		}
	}
	return false
}

// Ready returns the tasks in the given phase that are pending and whose
// dependencies have all completed, in dispatch priority order.
func (g *TaskGraph) Ready(phase models.ProjectPhase) []*models.Task {
	var ready []*models.Task
	for id, task := range g.tasks {
		if task.Phase != phase || task.Status != models.TaskStatusPending {
			continue
		}
		blocked := false
		for _, depID := range g.deps[id] {
			if !g.done[depID] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, task)
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		pi, pj := ready[i].Role.DispatchPriority(), ready[j].Role.DispatchPriority()
		if pi != pj {
			return pi < pj
		}
		return ready[i].ID < ready[j].ID
	})
	return ready
}

// MarkDone records a successful task, unblocking its dependents.
func (g *TaskGraph) MarkDone(taskID string) {
	g.done[taskID] = true
}

// MarkFailed records a permanent failure and transitively marks every
// pending dependent as skipped. The skipped tasks are returned.
func (g *TaskGraph) MarkFailed(taskID string) []*models.Task {
	var skipped []*models.Task
	frontier := []string{taskID}
	for len(frontier) > 0 {
		blocked := frontier[0]
		frontier = frontier[1:]
		for id, deps := range g.deps {
			for _, depID := range deps {
				if depID != blocked {
					continue
				}
				task := g.tasks[id]
				if task.Status == models.TaskStatusPending {
					task.Status = models.TaskStatusSkipped
					skipped = append(skipped, task)
					frontier = append(frontier, id)
				}
				break
			}
		}
	}
	return skipped
}

// Task returns the task for an ID, or nil if unknown.
func (g *TaskGraph) Task(taskID string) *models.Task {
	return g.tasks[taskID]
}

// PhaseSettled returns true once every task in the phase is terminal.
func (g *TaskGraph) PhaseSettled(phase models.ProjectPhase) bool {
	for _, task := range g.tasks {
		if task.Phase == phase && !task.Status.Terminal() {
			return false
		}
	}
	return true
}

// PhaseCounts returns (terminal, total) task counts for a phase.
func (g *TaskGraph) PhaseCounts(phase models.ProjectPhase) (int, int) {
	terminal, total := 0, 0
	for _, task := range g.tasks {
		if task.Phase != phase {
			continue
		}
		total++
		if task.Status.Terminal() {
			terminal++
		}
	}
	return terminal, total
}

// Size returns the number of tasks in the graph.
func (g *TaskGraph) Size() int {
	return len(g.tasks)
}
