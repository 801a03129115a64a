// Package eventlog writes build events to an append-only NDJSON file,
// one file per build. The log is an audit artifact; the orchestrator
// never reads it back.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType classifies a build event.
type EventType string

const (
	// EventBuildStarted marks the start of a build.
	EventBuildStarted EventType = "build_started"
	// EventTaskDispatched marks a task being sent to an agent.
	EventTaskDispatched EventType = "task_dispatched"
	// EventTaskCompleted marks a task reaching done.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed marks a task failure (possibly retried).
	EventTaskFailed EventType = "task_failed"
	// EventTaskRetried marks a task re-dispatch after failure.
	EventTaskRetried EventType = "task_retried"
	// EventPhaseAdvanced marks a project phase transition.
	EventPhaseAdvanced EventType = "phase_advanced"
	// EventIssueReported marks a new issue report.
	EventIssueReported EventType = "issue_reported"
	// EventBuildFinished marks the end of a build.
	EventBuildFinished EventType = "build_finished"
)

// Event is one NDJSON record.
type Event struct {
	// Time is when the event occurred.
	Time time.Time `json:"time"`
	// Type classifies the event.
	Type EventType `json:"type"`
	// ProjectID identifies the build.
	ProjectID string `json:"project_id"`
	// AgentID identifies the agent involved, if any.
	AgentID string `json:"agent_id,omitempty"`
	// TaskID identifies the task involved, if any.
	TaskID string `json:"task_id,omitempty"`
	// Detail carries free-form event fields.
	Detail map[string]string `json:"detail,omitempty"`
}

// Log appends events to an NDJSON file. A nil *Log is a no-op writer, so
// callers don't branch on whether logging is enabled.
type Log struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// Open creates an event log for the given project under dir. The file is
// named <projectID>.ndjson and truncated if it already exists.
func Open(dir, projectID string) (*Log, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	path := filepath.Join(dir, projectID+".ndjson")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &Log{file: file, encoder: json.NewEncoder(file)}, nil
}

// Write appends one event, stamping the time if unset.
func (l *Log) Write(evt Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	if err := l.encoder.Encode(evt); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
