package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/appswarm/appswarm/pkg/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Swarm.MonitorInterval <= 0 {
		t.Error("expected a positive monitor interval")
	}
	if cfg.Swarm.BuildTimeout <= cfg.Swarm.TaskTimeout {
		t.Error("build timeout should exceed the per-task timeout")
	}
	if cfg.Retry.MaxRetries < 1 {
		t.Errorf("expected at least 1 retry, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Swarm.MaxRecentMessages <= 0 {
		t.Error("expected a positive message queue cap")
	}
	if cfg.Anthropic.Model == "" || cfg.Anthropic.FallbackModel == "" {
		t.Error("expected default model names")
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
swarm:
  monitor_interval: 50ms
  task_timeout: 2m
retry:
  max_retries: 5
anthropic:
  model: claude-test-model
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Swarm.MonitorInterval != 50*time.Millisecond {
		t.Errorf("expected 50ms interval, got %v", cfg.Swarm.MonitorInterval)
	}
	if cfg.Swarm.TaskTimeout != 2*time.Minute {
		t.Errorf("expected 2m task timeout, got %v", cfg.Swarm.TaskTimeout)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.Retry.MaxRetries)
	}
	// Unset keys keep their defaults.
	if cfg.Swarm.BuildTimeout != 30*time.Minute {
		t.Errorf("expected default build timeout, got %v", cfg.Swarm.BuildTimeout)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDefaultRosterCoversAllRoles(t *testing.T) {
	roster := DefaultRoster()
	for _, role := range models.SpecialistRoles {
		if _, ok := roster.Spec(role); !ok {
			t.Errorf("default roster missing role %q", role)
		}
	}
	if _, ok := roster.Spec(models.RoleQualityAssurance); !ok {
		t.Error("default roster missing quality assurance")
	}
}

func TestLoadRosterFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	content := `
agents:
  - role: architecture
    name: Architect
    capabilities: [system_design]
  - role: implementation
    name: Builder
    capabilities: [code_generation]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roster.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(roster.Agents))
	}
	spec, ok := roster.Spec(models.RoleArchitecture)
	if !ok || spec.Name != "Architect" {
		t.Errorf("unexpected spec: %+v", spec)
	}
}

func TestLoadRosterMissingFileFallsBack(t *testing.T) {
	roster, err := LoadRoster(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roster.Agents) == 0 {
		t.Error("expected fallback to default roster")
	}
}

func TestLoadRosterRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	if err := os.WriteFile(path, []byte("agents: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRoster(path); err == nil {
		t.Error("expected error for empty roster")
	}
}
