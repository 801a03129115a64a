package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogWritesNDJSON(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, "proj-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	events := []Event{
		{Type: EventBuildStarted, ProjectID: "proj-1"},
		{Type: EventTaskDispatched, ProjectID: "proj-1", AgentID: "architecture", TaskID: "t1"},
		{Type: EventBuildFinished, ProjectID: "proj-1", Detail: map[string]string{"status": "completed"}},
	}
	for _, evt := range events {
		if err := l.Write(evt); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "proj-1.ndjson"))
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	var lines []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var evt Event
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			t.Fatalf("invalid NDJSON line: %v", err)
		}
		lines = append(lines, evt)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[1].Type != EventTaskDispatched || lines[1].TaskID != "t1" {
		t.Errorf("unexpected second event: %+v", lines[1])
	}
	if lines[0].Time.IsZero() {
		t.Error("expected time to be stamped")
	}
}

func TestNilLogIsNoOp(t *testing.T) {
	var l *Log
	if err := l.Write(Event{Type: EventBuildStarted}); err != nil {
		t.Errorf("nil log write should be a no-op, got %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil log close should be a no-op, got %v", err)
	}
}
