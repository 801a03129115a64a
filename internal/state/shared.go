// Package state provides the shared state store for the agent swarm.
// It is the single source of truth for project records, agent status,
// inter-agent message queues, and issue reports. Every accessor is safe
// for concurrent use; readers always see a consistent snapshot.
package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appswarm/appswarm/pkg/models"
)

var (
	// ErrProjectNotFound is returned when a project ID is unknown.
	ErrProjectNotFound = errors.New("project not found")
	// ErrIssueNotFound is returned when an issue ID is unknown.
	ErrIssueNotFound = errors.New("issue not found")
	// ErrEmptyProjectName is returned when CreateProject is called with an empty name.
	ErrEmptyProjectName = errors.New("project name is empty")
	// ErrInvalidIssueTransition is returned for disallowed issue status moves.
	ErrInvalidIssueTransition = errors.New("invalid issue status transition")
)

// DefaultMaxRecentMessages bounds each agent's message queue when no
// explicit capacity is configured.
const DefaultMaxRecentMessages = 100

// SharedState is the central, concurrency-safe store shared by the swarm,
// the orchestrator, and all agents. Components never hold private mutable
// copies of its records; they read snapshots and write back through the
// mutators below.
type SharedState struct {
	mu sync.RWMutex

	projects map[string]*models.Project
	// projectOrder preserves creation order for deterministic listings.
	projectOrder []string
	agents       map[string]*models.AgentState
	queues       map[string][]models.Message
	issues       map[string]*models.Issue
	// issueOrder preserves per-project report order.
	issueOrder map[string][]string

	// maxRecent caps each recipient queue; the oldest message is evicted
	// when a send would exceed it.
	maxRecent int

	// now is the clock, overridable in tests.
	now func() time.Time
}

// New creates an empty SharedState with the given message queue capacity.
// A non-positive cap falls back to DefaultMaxRecentMessages.
func New(maxRecentMessages int) *SharedState {
	if maxRecentMessages <= 0 {
		maxRecentMessages = DefaultMaxRecentMessages
	}
	return &SharedState{
		projects:   make(map[string]*models.Project),
		agents:     make(map[string]*models.AgentState),
		queues:     make(map[string][]models.Message),
		issues:     make(map[string]*models.Issue),
		issueOrder: make(map[string][]string),
		maxRecent:  maxRecentMessages,
		now:        time.Now,
	}
}

// CreateProject allocates and registers a new project in the planning
// phase and returns its generated ID. The only failure mode is an empty
// (or blank) name.
func (s *SharedState) CreateProject(name, description string, requirements, features []string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyProjectName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.projects[id] = &models.Project{
		ID:                 id,
		Name:               name,
		Description:        description,
		Requirements:       append([]string(nil), requirements...),
		Features:           append([]string(nil), features...),
		Phase:              models.PhasePlanning,
		Progress:           0.0,
		Files:              make(map[string]string),
		TestResults:        make(map[string]string),
		PerformanceMetrics: make(map[string]string),
		Documentation:      make(map[string]string),
		DeploymentConfig:   make(map[string]string),
		CreatedAt:          s.now(),
	}
	s.projectOrder = append(s.projectOrder, id)
	return id, nil
}

// GetProjectState returns a deep snapshot of the project, or
// ErrProjectNotFound for an unknown ID.
func (s *SharedState) GetProjectState(projectID string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return cloneProject(p), nil
}

// ListProjects returns lightweight summaries of every project in creation order.
func (s *SharedState) ListProjects() []models.ProjectSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.ProjectSummary, 0, len(s.projectOrder))
	for _, id := range s.projectOrder {
		p := s.projects[id]
		summaries = append(summaries, models.ProjectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Phase:       p.Phase,
			Progress:    p.Progress,
		})
	}
	return summaries
}

// UpdateProjectPhase sets the project's current phase. Terminal phases are
// sticky: once a project is completed it stays completed.
func (s *SharedState) UpdateProjectPhase(projectID string, phase models.ProjectPhase) error {
	if !phase.Valid() {
		return fmt.Errorf("unknown phase %q", phase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	if p.Phase.Terminal() {
		return nil
	}
	p.Phase = phase
	return nil
}

// UpdateProjectProgress sets the project's overall progress fraction.
// Values are clamped to [0, 1] and decreases are ignored, keeping
// progress monotonically non-decreasing for the life of the build.
func (s *SharedState) UpdateProjectProgress(projectID string, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	if progress > p.Progress {
		p.Progress = progress
	}
	return nil
}

// AddProjectFile registers a created file and stores its content snapshot.
// Writing the same path twice is last-write-wins; the file count always
// equals the number of distinct registered paths.
func (s *SharedState) AddProjectFile(projectID, path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	p.Files[path] = content
	return nil
}

// AddArchitectureDecision records a design decision on the project.
func (s *SharedState) AddArchitectureDecision(projectID string, d models.ArchitectureDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = s.now()
	}
	p.ArchitectureDecisions = append(p.ArchitectureDecisions, d)
	return nil
}

// AddSecurityFinding records a security review finding on the project.
func (s *SharedState) AddSecurityFinding(projectID string, f models.SecurityFinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	p.SecurityFindings = append(p.SecurityFindings, f)
	return nil
}

// SetTestResult records the outcome of one test suite.
func (s *SharedState) SetTestResult(projectID, suite, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	p.TestResults[suite] = outcome
	return nil
}

// SetPerformanceMetric records one measured performance metric.
func (s *SharedState) SetPerformanceMetric(projectID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	p.PerformanceMetrics[name] = value
	return nil
}

// AddDocumentation registers a documentation file and its content.
func (s *SharedState) AddDocumentation(projectID, path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	p.Documentation[path] = content
	return nil
}

// SetDeploymentConfig merges entries into the project's deployment config.
func (s *SharedState) SetDeploymentConfig(projectID string, cfg map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	for k, v := range cfg {
		p.DeploymentConfig[k] = v
	}
	return nil
}

// RegisterAgent registers an agent and creates its message queue. Calling
// it again for the same ID refreshes the capability list but preserves the
// existing queue; registration is idempotent.
func (s *SharedState) RegisterAgent(agentID string, capabilities []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerLocked(agentID, capabilities)
}

func (s *SharedState) registerLocked(agentID string, capabilities []string) *models.AgentState {
	a, ok := s.agents[agentID]
	if !ok {
		a = &models.AgentState{
			ID:       agentID,
			Status:   models.AgentStatusIdle,
			Progress: 0.0,
		}
		s.agents[agentID] = a
	}
	if capabilities != nil {
		a.Capabilities = append([]string(nil), capabilities...)
	}
	a.LastUpdate = s.tick(a.LastUpdate)
	if _, ok := s.queues[agentID]; !ok {
		s.queues[agentID] = nil
	}
	return a
}

// UpdateAgentStatus upserts the agent's status record. Unknown agent IDs
// are auto-registered so late-starting agents are tolerated. The record's
// LastUpdate timestamp strictly increases on every write.
func (s *SharedState) UpdateAgentStatus(agentID string, status models.AgentStatus, currentTask string, progress float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.registerLocked(agentID, nil)
	if status.Valid() {
		a.Status = status
	}
	a.CurrentTask = currentTask
	if progress >= 0 && progress <= 1 {
		a.Progress = progress
	}
	a.LastUpdate = s.tick(a.LastUpdate)
}

// GetAgentState returns a snapshot of one agent's status record, or false
// if the agent was never registered.
func (s *SharedState) GetAgentState(agentID string) (models.AgentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[agentID]
	if !ok {
		return models.AgentState{}, false
	}
	return cloneAgent(a), true
}

// GetAgentStates returns a snapshot of every agent's status record.
func (s *SharedState) GetAgentStates() map[string]models.AgentState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.AgentState, len(s.agents))
	for id, a := range s.agents {
		out[id] = cloneAgent(a)
	}
	return out
}

// SendMessage appends a message to the recipient's queue, or to every
// queue except the sender's when the recipient is models.Broadcast. When a
// queue is at capacity the oldest message is evicted. Direct sends to an
// unknown recipient create the queue so messages sent before an agent
// starts are not lost.
func (s *SharedState) SendMessage(from, to string, msgType models.MessageType, payload models.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := models.Message{
		From:    from,
		To:      to,
		Type:    msgType,
		Payload: payload,
		SentAt:  s.now(),
	}

	if to == models.Broadcast {
		for id := range s.queues {
			if id == from {
				continue
			}
			s.enqueueLocked(id, msg)
		}
		return
	}
	s.enqueueLocked(to, msg)
}

func (s *SharedState) enqueueLocked(agentID string, msg models.Message) {
	q := s.queues[agentID]
	if len(q) >= s.maxRecent {
		q = q[1:]
	}
	s.queues[agentID] = append(q, msg)
}

// GetMessages returns the recipient's queued messages in FIFO order.
// When consume is true the queue is drained atomically, giving
// at-most-once delivery per read.
func (s *SharedState) GetMessages(agentID string, consume bool) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[agentID]
	if len(q) == 0 {
		return nil
	}
	out := make([]models.Message, len(q))
	copy(out, q)
	if consume {
		s.queues[agentID] = nil
	}
	return out
}

// ReportIssue creates an issue report for the project and returns its
// generated ID. Severity is fixed at creation.
func (s *SharedState) ReportIssue(projectID string, issue models.Issue) (string, error) {
	if !issue.Severity.Valid() {
		return "", fmt.Errorf("unknown severity %q", issue.Severity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return "", ErrProjectNotFound
	}

	issue.ID = uuid.NewString()
	issue.ProjectID = projectID
	issue.Status = models.IssueOpen
	issue.ReportedAt = s.now()
	s.issues[issue.ID] = &issue
	s.issueOrder[projectID] = append(s.issueOrder[projectID], issue.ID)
	return issue.ID, nil
}

// ClaimIssue moves an open issue to in_progress on behalf of the claiming
// agent. Claiming a non-open issue is ErrInvalidIssueTransition.
func (s *SharedState) ClaimIssue(issueID, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[issueID]
	if !ok {
		return ErrIssueNotFound
	}
	if !issue.Status.CanTransitionTo(models.IssueInProgress) {
		return ErrInvalidIssueTransition
	}
	issue.Status = models.IssueInProgress
	issue.ClaimedBy = agentID
	return nil
}

// ResolveIssue moves an in_progress issue to resolved. Resolving an issue
// that was never claimed is ErrInvalidIssueTransition; an issue cannot go
// straight from open to resolved.
func (s *SharedState) ResolveIssue(issueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[issueID]
	if !ok {
		return ErrIssueNotFound
	}
	if !issue.Status.CanTransitionTo(models.IssueResolved) {
		return ErrInvalidIssueTransition
	}
	issue.Status = models.IssueResolved
	return nil
}

// IssueFilter selects a subset of a project's issues. Zero-value fields
// match everything.
type IssueFilter struct {
	// Severity restricts results to one severity when set.
	Severity models.IssueSeverity
	// Status restricts results to one status when set.
	Status models.IssueStatus
}

// GetProjectIssues returns the project's issues in report order, narrowed
// by the filter. An unknown project returns ErrProjectNotFound.
func (s *SharedState) GetProjectIssues(projectID string, filter IssueFilter) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, ErrProjectNotFound
	}

	var out []models.Issue
	for _, id := range s.issueOrder[projectID] {
		issue := s.issues[id]
		if filter.Severity != "" && issue.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && issue.Status != filter.Status {
			continue
		}
		out = append(out, cloneIssue(issue))
	}
	return out, nil
}

// OpenIssueCount returns how many of the project's issues are not resolved.
func (s *SharedState) OpenIssueCount(projectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, id := range s.issueOrder[projectID] {
		if s.issues[id].Status != models.IssueResolved {
			n++
		}
	}
	return n
}

// HasCriticalOpenIssue reports whether the project has an unresolved
// critical issue, which pauses phase advancement.
func (s *SharedState) HasCriticalOpenIssue(projectID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.issueOrder[projectID] {
		issue := s.issues[id]
		if issue.Severity == models.SeverityCritical && issue.Status != models.IssueResolved {
			return true
		}
	}
	return false
}

// ResetAgents returns every agent record to idle. Called when the swarm stops.
func (s *SharedState) ResetAgents() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.agents {
		a.Status = models.AgentStatusIdle
		a.CurrentTask = ""
		a.Progress = 0.0
		a.LastUpdate = s.tick(a.LastUpdate)
	}
}

// AgentIDs returns the registered agent IDs in sorted order.
func (s *SharedState) AgentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// tick returns a timestamp strictly after prev, so repeated writes within
// the clock's resolution still order correctly.
func (s *SharedState) tick(prev time.Time) time.Time {
	t := s.now()
	if !t.After(prev) {
		t = prev.Add(time.Nanosecond)
	}
	return t
}

func cloneProject(p *models.Project) *models.Project {
	out := *p
	out.Requirements = append([]string(nil), p.Requirements...)
	out.Features = append([]string(nil), p.Features...)
	out.Files = cloneMap(p.Files)
	out.TestResults = cloneMap(p.TestResults)
	out.PerformanceMetrics = cloneMap(p.PerformanceMetrics)
	out.Documentation = cloneMap(p.Documentation)
	out.DeploymentConfig = cloneMap(p.DeploymentConfig)
	out.ArchitectureDecisions = append([]models.ArchitectureDecision(nil), p.ArchitectureDecisions...)
	out.SecurityFindings = append([]models.SecurityFinding(nil), p.SecurityFindings...)
	return &out
}

func cloneAgent(a *models.AgentState) models.AgentState {
	out := *a
	out.Capabilities = append([]string(nil), a.Capabilities...)
	return out
}

func cloneIssue(i *models.Issue) models.Issue {
	out := *i
	out.AffectedFiles = append([]string(nil), i.AffectedFiles...)
	out.Suggestions = append([]string(nil), i.Suggestions...)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
