package state

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/appswarm/appswarm/pkg/models"
)

func TestCreateProjectGeneratesUniqueIDs(t *testing.T) {
	s := New(0)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := s.CreateProject(fmt.Sprintf("app-%d", i), "desc", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id == "" {
			t.Fatal("expected non-empty project ID")
		}
		if seen[id] {
			t.Fatalf("duplicate project ID %s", id)
		}
		seen[id] = true
	}
}

func TestCreateProjectEmptyName(t *testing.T) {
	s := New(0)
	if _, err := s.CreateProject("", "desc", nil, nil); !errors.Is(err, ErrEmptyProjectName) {
		t.Errorf("expected ErrEmptyProjectName, got %v", err)
	}
	if _, err := s.CreateProject("   ", "desc", nil, nil); !errors.Is(err, ErrEmptyProjectName) {
		t.Errorf("expected ErrEmptyProjectName for blank name, got %v", err)
	}
}

func TestCreateProjectInitialState(t *testing.T) {
	s := New(0)
	id, err := s.CreateProject("TodoApp", "A todo app", []string{"auth", "crud"}, []string{"offline_sync"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := s.GetProjectState(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Phase != models.PhasePlanning {
		t.Errorf("expected planning phase, got %q", p.Phase)
	}
	if p.Progress != 0.0 {
		t.Errorf("expected zero progress, got %f", p.Progress)
	}
	if p.FilesCreated() != 0 {
		t.Errorf("expected no files, got %d", p.FilesCreated())
	}
	if len(p.Requirements) != 2 || len(p.Features) != 1 {
		t.Errorf("requirements/features not preserved: %v / %v", p.Requirements, p.Features)
	}
}

func TestGetProjectStateNotFound(t *testing.T) {
	s := New(0)
	if _, err := s.GetProjectState("nonexistent-id"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	s := New(0)
	id, _ := s.CreateProject("app", "d", nil, nil)

	writes := []float64{0.1, 0.4, 0.2, 0.4, 0.9, 0.5, 1.2, -0.5}
	var last float64
	for _, w := range writes {
		if err := s.UpdateProjectProgress(id, w); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p, _ := s.GetProjectState(id)
		if p.Progress < last {
			t.Errorf("progress went backwards: %f after %f", p.Progress, last)
		}
		if p.Progress > 1.0 {
			t.Errorf("progress exceeded 1.0: %f", p.Progress)
		}
		last = p.Progress
	}
	if last != 1.0 {
		t.Errorf("expected final progress 1.0, got %f", last)
	}
}

func TestFileCountMatchesDistinctPaths(t *testing.T) {
	s := New(0)
	id, _ := s.CreateProject("app", "d", nil, nil)

	paths := []string{"lib/main.dart", "lib/app.dart", "lib/main.dart", "test/app_test.dart", "lib/app.dart"}
	for i, path := range paths {
		if err := s.AddProjectFile(id, path, fmt.Sprintf("content-%d", i)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	p, _ := s.GetProjectState(id)
	if p.FilesCreated() != 3 {
		t.Errorf("expected 3 distinct files, got %d", p.FilesCreated())
	}
	// Duplicate writes are last-write-wins.
	if p.Files["lib/main.dart"] != "content-2" {
		t.Errorf("expected last write to win, got %q", p.Files["lib/main.dart"])
	}
}

func TestMessageFIFOPerRecipient(t *testing.T) {
	s := New(0)
	s.RegisterAgent("a", nil)
	s.RegisterAgent("b", nil)
	s.RegisterAgent("c", nil)

	send := func(from, to, topic string) {
		s.SendMessage(from, to, models.MessageCollaborationRequest, models.Payload{
			Collaboration: &models.CollaborationPayload{Topic: topic},
		})
	}
	send("a", "b", "first")
	send("b", "c", "other")
	send("a", "b", "second")

	msgs := s.GetMessages("b", true)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages for b, got %d", len(msgs))
	}
	if msgs[0].Payload.Collaboration.Topic != "first" || msgs[1].Payload.Collaboration.Topic != "second" {
		t.Errorf("messages out of order: %q then %q",
			msgs[0].Payload.Collaboration.Topic, msgs[1].Payload.Collaboration.Topic)
	}

	// Consumed queue is drained.
	if again := s.GetMessages("b", true); len(again) != 0 {
		t.Errorf("expected drained queue, got %d messages", len(again))
	}
}

func TestGetMessagesWithoutConsume(t *testing.T) {
	s := New(0)
	s.RegisterAgent("a", nil)
	s.RegisterAgent("b", nil)
	s.SendMessage("a", "b", models.MessageStateSync, models.Payload{})

	if got := s.GetMessages("b", false); len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got := s.GetMessages("b", true); len(got) != 1 {
		t.Fatalf("expected message still queued, got %d", len(got))
	}
}

func TestMessageQueueEviction(t *testing.T) {
	s := New(3)
	s.RegisterAgent("a", nil)
	s.RegisterAgent("b", nil)

	for i := 0; i < 5; i++ {
		s.SendMessage("a", "b", models.MessageCollaborationRequest, models.Payload{
			Collaboration: &models.CollaborationPayload{Topic: fmt.Sprintf("m%d", i)},
		})
	}

	msgs := s.GetMessages("b", true)
	if len(msgs) != 3 {
		t.Fatalf("expected queue capped at 3, got %d", len(msgs))
	}
	// Oldest evicted first.
	if msgs[0].Payload.Collaboration.Topic != "m2" {
		t.Errorf("expected oldest messages evicted, head is %q", msgs[0].Payload.Collaboration.Topic)
	}
}

func TestBroadcastSkipsSender(t *testing.T) {
	s := New(0)
	s.RegisterAgent("a", nil)
	s.RegisterAgent("b", nil)
	s.RegisterAgent("c", nil)

	s.SendMessage("a", models.Broadcast, models.MessageStateSync, models.Payload{})

	if got := s.GetMessages("a", true); len(got) != 0 {
		t.Errorf("sender should not receive its own broadcast, got %d", len(got))
	}
	if got := s.GetMessages("b", true); len(got) != 1 {
		t.Errorf("expected broadcast for b, got %d", len(got))
	}
	if got := s.GetMessages("c", true); len(got) != 1 {
		t.Errorf("expected broadcast for c, got %d", len(got))
	}
}

func TestUpdateAgentStatusAutoRegisters(t *testing.T) {
	s := New(0)
	s.UpdateAgentStatus("late-agent", models.AgentStatusWorking, "building", 0.5)

	a, ok := s.GetAgentState("late-agent")
	if !ok {
		t.Fatal("expected agent to be auto-registered")
	}
	if a.Status != models.AgentStatusWorking || a.CurrentTask != "building" {
		t.Errorf("unexpected state: %+v", a)
	}
}

func TestAgentLastUpdateStrictlyIncreases(t *testing.T) {
	s := New(0)
	var prev models.AgentState
	for i := 0; i < 10; i++ {
		s.UpdateAgentStatus("agent", models.AgentStatusWorking, "t", float64(i)/10)
		a, _ := s.GetAgentState("agent")
		if i > 0 && !a.LastUpdate.After(prev.LastUpdate) {
			t.Fatalf("LastUpdate did not increase: %v then %v", prev.LastUpdate, a.LastUpdate)
		}
		prev = a
	}
}

func TestAgentStateSnapshotIsolation(t *testing.T) {
	s := New(0)
	s.RegisterAgent("agent", []string{"cap"})

	snap := s.GetAgentStates()
	a := snap["agent"]
	a.Status = models.AgentStatusError
	a.Capabilities[0] = "mutated"

	fresh, _ := s.GetAgentState("agent")
	if fresh.Status != models.AgentStatusIdle {
		t.Error("snapshot mutation leaked into the store")
	}
	if fresh.Capabilities[0] != "cap" {
		t.Error("capability slice is shared with the snapshot")
	}
}

func TestIssueLifecycle(t *testing.T) {
	s := New(0)
	pid, _ := s.CreateProject("app", "d", nil, nil)

	id, err := s.ReportIssue(pid, models.Issue{
		ReportedBy:  "testing",
		Type:        "tool_failure",
		Severity:    models.SeverityHigh,
		Description: "widget test crashed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Direct open -> resolved is rejected.
	if err := s.ResolveIssue(id); !errors.Is(err, ErrInvalidIssueTransition) {
		t.Errorf("expected ErrInvalidIssueTransition, got %v", err)
	}

	if err := s.ClaimIssue(id, "implementation"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Double claim is rejected.
	if err := s.ClaimIssue(id, "testing"); !errors.Is(err, ErrInvalidIssueTransition) {
		t.Errorf("expected ErrInvalidIssueTransition on double claim, got %v", err)
	}
	if err := s.ResolveIssue(id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issues, err := s.GetProjectIssues(pid, IssueFilter{Status: models.IssueResolved})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 || issues[0].ClaimedBy != "implementation" {
		t.Errorf("unexpected issues: %+v", issues)
	}
}

func TestGetProjectIssuesFiltering(t *testing.T) {
	s := New(0)
	pid, _ := s.CreateProject("app", "d", nil, nil)

	for _, sev := range []models.IssueSeverity{models.SeverityLow, models.SeverityCritical, models.SeverityCritical} {
		if _, err := s.ReportIssue(pid, models.Issue{ReportedBy: "security", Type: "finding", Severity: sev, Description: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	critical, _ := s.GetProjectIssues(pid, IssueFilter{Severity: models.SeverityCritical})
	if len(critical) != 2 {
		t.Errorf("expected 2 critical issues, got %d", len(critical))
	}
	all, _ := s.GetProjectIssues(pid, IssueFilter{})
	if len(all) != 3 {
		t.Errorf("expected 3 issues, got %d", len(all))
	}
	if !s.HasCriticalOpenIssue(pid) {
		t.Error("expected critical open issue to be detected")
	}
	if s.OpenIssueCount(pid) != 3 {
		t.Errorf("expected 3 open issues, got %d", s.OpenIssueCount(pid))
	}
}

func TestConcurrentMutators(t *testing.T) {
	s := New(0)
	pid, _ := s.CreateProject("app", "d", nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AddProjectFile(pid, fmt.Sprintf("lib/f%d_%d.dart", n, j), "x")
				s.UpdateAgentStatus(fmt.Sprintf("agent-%d", n), models.AgentStatusWorking, "t", 0.5)
				s.SendMessage(fmt.Sprintf("agent-%d", n), models.Broadcast, models.MessageStateSync, models.Payload{})
				s.GetProjectState(pid)
				s.GetAgentStates()
			}
		}(i)
	}
	wg.Wait()

	p, _ := s.GetProjectState(pid)
	if p.FilesCreated() != 8*50 {
		t.Errorf("expected %d files, got %d", 8*50, p.FilesCreated())
	}
}
