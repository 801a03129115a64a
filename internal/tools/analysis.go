package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/appswarm/appswarm/internal/state"
)

// AnalysisTool runs static checks over a project's registered files. It is
// the swarm-internal stand-in for framework analyzers; the checks are
// deliberately shallow since file contents are opaque to the core.
type AnalysisTool struct {
	shared *state.SharedState
}

// NewAnalysisTool creates an analysis tool bound to the shared state.
func NewAnalysisTool(shared *state.SharedState) *AnalysisTool {
	return &AnalysisTool{shared: shared}
}

// Name implements Tool.
func (t *AnalysisTool) Name() string { return "analysis" }

// Execute implements Tool. Operations: scan (project_id) reports empty
// files and leftover TODO markers; stats (project_id) reports size counts.
func (t *AnalysisTool) Execute(ctx context.Context, operation string, params Params) Result {
	p, err := t.shared.GetProjectState(params["project_id"])
	if err != nil {
		return Errorf("analysis: %v", err)
	}

	switch operation {
	case "scan":
		var findings []string
		for path, content := range p.Files {
			if strings.TrimSpace(content) == "" {
				findings = append(findings, fmt.Sprintf("%s: empty file", path))
			}
			if strings.Contains(content, "TODO") {
				findings = append(findings, fmt.Sprintf("%s: unresolved TODO", path))
			}
		}
		sort.Strings(findings)
		status := StatusSuccess
		if len(findings) > 0 {
			status = StatusWarning
		}
		return Result{
			Status: status,
			Output: strings.Join(findings, "\n"),
			Data:   map[string]string{"findings": fmt.Sprintf("%d", len(findings))},
		}
	case "stats":
		totalBytes := 0
		for _, content := range p.Files {
			totalBytes += len(content)
		}
		return Result{
			Status: StatusSuccess,
			Data: map[string]string{
				"files": fmt.Sprintf("%d", len(p.Files)),
				"bytes": fmt.Sprintf("%d", totalBytes),
			},
		}
	default:
		return Errorf("analysis tool: unknown operation %q", operation)
	}
}
