package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/pkg/models"
)

func TestMonitorViewShowsProjectAndAgents(t *testing.T) {
	shared := state.New(state.DefaultMaxRecentMessages)
	projectID, err := shared.CreateProject("notes", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	shared.RegisterAgent("architecture", nil)
	shared.UpdateAgentStatus("architecture", models.AgentStatusWorking, "designing", 0.5)

	m := NewMonitor(shared, projectID, 10*time.Millisecond)
	m.snapshot()

	view := m.View()
	if !strings.Contains(view, "notes") {
		t.Error("project name missing from view")
	}
	if !strings.Contains(view, "architecture") {
		t.Error("agent missing from view")
	}
	if !strings.Contains(view, "designing") {
		t.Error("current task missing from view")
	}
}

func TestMonitorQuitsOnTerminalPhase(t *testing.T) {
	shared := state.New(state.DefaultMaxRecentMessages)
	projectID, _ := shared.CreateProject("notes", "", nil, nil)
	shared.UpdateProjectPhase(projectID, models.PhaseCompleted)

	m := NewMonitor(shared, projectID, 10*time.Millisecond)
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("cmd produced %v, want quit", msg)
	}
}

func TestMonitorQuitsOnKey(t *testing.T) {
	shared := state.New(state.DefaultMaxRecentMessages)
	projectID, _ := shared.CreateProject("notes", "", nil, nil)

	m := NewMonitor(shared, projectID, 10*time.Millisecond)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}
