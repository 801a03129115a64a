package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/appswarm/appswarm/internal/state"
)

// FileTool writes and reads project files. Every write is registered in
// shared state (the authoritative file registry) and optionally mirrored
// into a workspace directory on disk.
type FileTool struct {
	shared *state.SharedState
	// workspaceDir mirrors writes to disk when non-empty.
	workspaceDir string
}

// NewFileTool creates a file tool bound to the shared state. workspaceDir
// may be empty to keep files in shared state only.
func NewFileTool(shared *state.SharedState, workspaceDir string) *FileTool {
	return &FileTool{shared: shared, workspaceDir: workspaceDir}
}

// Name implements Tool.
func (t *FileTool) Name() string { return "file" }

// Execute implements Tool. Operations: write (project_id, path, content),
// read (project_id, path), list (project_id).
func (t *FileTool) Execute(ctx context.Context, operation string, params Params) Result {
	switch operation {
	case "write":
		return t.write(params)
	case "read":
		return t.read(params)
	case "list":
		return t.list(params)
	default:
		return Errorf("file tool: unknown operation %q", operation)
	}
}

func (t *FileTool) write(params Params) Result {
	projectID, path, content := params["project_id"], params["path"], params["content"]
	if projectID == "" || path == "" {
		return Errorf("file write requires project_id and path")
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	if filepath.IsAbs(path) || clean == ".." || strings.HasPrefix(clean, "../") {
		return Errorf("file write rejects path %q: must be project-relative", path)
	}

	if err := t.shared.AddProjectFile(projectID, path, content); err != nil {
		return Errorf("register file: %v", err)
	}

	if t.workspaceDir != "" {
		full := filepath.Join(t.workspaceDir, projectID, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return Result{Status: StatusWarning, Output: path,
				Error: fmt.Sprintf("registered but not mirrored: %v", err)}
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return Result{Status: StatusWarning, Output: path,
				Error: fmt.Sprintf("registered but not mirrored: %v", err)}
		}
	}
	return Result{Status: StatusSuccess, Output: path}
}

func (t *FileTool) read(params Params) Result {
	projectID, path := params["project_id"], params["path"]
	p, err := t.shared.GetProjectState(projectID)
	if err != nil {
		return Errorf("read file: %v", err)
	}
	content, ok := p.Files[path]
	if !ok {
		return Errorf("file %q not registered", path)
	}
	return Result{Status: StatusSuccess, Output: content}
}

func (t *FileTool) list(params Params) Result {
	p, err := t.shared.GetProjectState(params["project_id"])
	if err != nil {
		return Errorf("list files: %v", err)
	}
	paths := make([]string, 0, len(p.Files))
	for path := range p.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return Result{
		Status: StatusSuccess,
		Output: strings.Join(paths, "\n"),
		Data:   map[string]string{"count": fmt.Sprintf("%d", len(paths))},
	}
}
