// Package tools provides the capability registry agents use for side
// effects. Tools are invoked by name with an operation and parameters and
// always return a Result; a non-success status is a task failure signal,
// never a panic.
package tools

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status classifies a tool execution outcome.
type Status string

const (
	// StatusSuccess indicates the operation completed.
	StatusSuccess Status = "success"
	// StatusError indicates the operation failed.
	StatusError Status = "error"
	// StatusWarning indicates the operation completed with caveats.
	StatusWarning Status = "warning"
	// StatusTimeout indicates the operation exceeded its time budget.
	StatusTimeout Status = "timeout"
)

// Result is the outcome of one tool execution.
type Result struct {
	// Status classifies the outcome.
	Status Status `json:"status"`
	// Output is the human-readable result text.
	Output string `json:"output,omitempty"`
	// Error describes the failure for non-success statuses.
	Error string `json:"error,omitempty"`
	// Data carries structured result values.
	Data map[string]string `json:"data,omitempty"`
	// Elapsed is how long the execution took.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// OK returns true for a success or warning result.
func (r Result) OK() bool {
	return r.Status == StatusSuccess || r.Status == StatusWarning
}

// Errorf builds an error Result from a format string.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// Params are the open key/value parameters of a tool invocation.
type Params map[string]string

// Tool is a single named capability.
type Tool interface {
	// Name is the registry key for the tool.
	Name() string
	// Execute runs one operation. Implementations return error Results
	// rather than Go errors for expected failures.
	Execute(ctx context.Context, operation string, params Params) Result
}

// Manager is the tool registry. It is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	tools map[string]Tool
	// timeout bounds each execution; zero means no bound.
	timeout time.Duration
}

// NewManager creates an empty tool registry with the given per-call timeout.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		tools:   make(map[string]Tool),
		timeout: timeout,
	}
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (m *Manager) Register(t Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools[t.Name()] = t
}

// Names returns the registered tool names.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	return names
}

// Execute runs one operation on a named tool. Unknown tools and timed-out
// executions are reported through the Result status.
func (m *Manager) Execute(ctx context.Context, toolName, operation string, params Params) Result {
	m.mu.RLock()
	tool, ok := m.tools[toolName]
	m.mu.RUnlock()
	if !ok {
		return Errorf("unknown tool %q", toolName)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		done <- tool.Execute(ctx, operation, params)
	}()

	select {
	case res := <-done:
		res.Elapsed = time.Since(start)
		return res
	case <-ctx.Done():
		return Result{
			Status:  StatusTimeout,
			Error:   fmt.Sprintf("tool %q timed out during %q", toolName, operation),
			Elapsed: time.Since(start),
		}
	}
}
