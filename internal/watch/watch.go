// Package watch mirrors external edits in a project's workspace directory
// back into shared state, so files changed outside the swarm still count
// toward the project's file set.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/appswarm/appswarm/internal/state"
)

// Watcher observes one project's workspace directory and registers every
// written file through SharedState.AddProjectFile.
type Watcher struct {
	shared    *state.SharedState
	projectID string
	root      string

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// New starts a watcher over workspaceDir/<projectID>. The directory is
// created if missing. Existing subdirectories are watched too; new ones
// are picked up as they appear.
func New(shared *state.SharedState, workspaceDir, projectID string) (*Watcher, error) {
	root := filepath.Join(workspaceDir, projectID)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}

	w := &Watcher{
		shared:    shared,
		projectID: projectID,
		root:      root,
		watcher:   fw,
		done:      make(chan struct{}),
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch workspace: %w", err)
	}

	go w.run()
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string { return w.root }

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.handle(event.Name)
		case <-w.watcher.Errors:
			// Keep watching; a missed event is recovered on the next write.
		}
	}
}

func (w *Watcher) handle(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		w.watcher.Add(path)
		return
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	w.shared.AddProjectFile(w.projectID, filepath.ToSlash(rel), string(content))
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}
