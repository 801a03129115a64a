// Package tui provides the live build monitor shown during builds.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/appswarm/appswarm/internal/state"
	"github.com/appswarm/appswarm/pkg/models"
)

// tickMsg drives the periodic shared-state refresh.
type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	issueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true)

	statusStyles = map[models.AgentStatus]lipgloss.Style{
		models.AgentStatusIdle:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		models.AgentStatusWorking:   lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		models.AgentStatusWaiting:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.AgentStatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		models.AgentStatusError:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Monitor is the bubbletea model rendering one project's build progress
// and the agent fleet's live statuses.
type Monitor struct {
	shared    *state.SharedState
	projectID string
	refresh   time.Duration

	bar        progress.Model
	project    *models.Project
	agents     map[string]models.AgentState
	openIssues int
	width      int
	quitting   bool
}

// NewMonitor creates a monitor over one project.
func NewMonitor(shared *state.SharedState, projectID string, refresh time.Duration) *Monitor {
	if refresh <= 0 {
		refresh = 200 * time.Millisecond
	}
	return &Monitor{
		shared:    shared,
		projectID: projectID,
		refresh:   refresh,
		bar:       progress.New(progress.WithDefaultGradient()),
		agents:    make(map[string]models.AgentState),
		width:     80,
	}
}

// Init implements tea.Model.
func (m *Monitor) Init() tea.Cmd {
	m.snapshot()
	return m.tick()
}

func (m *Monitor) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// snapshot pulls the current project and agent views from shared state.
func (m *Monitor) snapshot() {
	if project, err := m.shared.GetProjectState(m.projectID); err == nil {
		m.project = project
	}
	m.agents = m.shared.GetAgentStates()
	m.openIssues = m.shared.OpenIssueCount(m.projectID)
}

// Update implements tea.Model.
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 10

	case tickMsg:
		m.snapshot()
		if m.project != nil && buildOver(m.project.Phase) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Monitor) View() string {
	if m.project == nil {
		return labelStyle.Render("waiting for project state...") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.project.Name))
	b.WriteString("  ")
	b.WriteString(phaseStyle.Render(string(m.project.Phase)))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(m.project.Progress))
	b.WriteString(fmt.Sprintf("  %3.0f%%\n\n", m.project.Progress*100))

	ids := make([]string, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := m.agents[id]
		style, ok := statusStyles[st.Status]
		if !ok {
			style = labelStyle
		}
		line := fmt.Sprintf("%-18s %s", id, style.Render(string(st.Status)))
		if st.CurrentTask != "" {
			line += labelStyle.Render("  " + st.CurrentTask)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("files: %d", m.project.FilesCreated())))
	if m.openIssues > 0 {
		b.WriteString(issueStyle.Render(fmt.Sprintf("  open issues: %d", m.openIssues)))
	}
	if buildOver(m.project.Phase) {
		b.WriteString("\n")
		b.WriteString(doneStyle.Render("build finished"))
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("press q to quit"))
	b.WriteString("\n")
	return b.String()
}

// buildOver reports whether the phase means no more work will happen.
// The error phase is not terminal in the state machine but ends a build.
func buildOver(phase models.ProjectPhase) bool {
	return phase.Terminal() || phase == models.PhaseError
}

// Run blocks showing the monitor until the build reaches a terminal
// phase or the user quits.
func Run(shared *state.SharedState, projectID string, refresh time.Duration) error {
	p := tea.NewProgram(NewMonitor(shared, projectID, refresh))
	_, err := p.Run()
	return err
}
