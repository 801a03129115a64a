// Package config handles configuration loading for appswarm.
// It supports XDG config paths, project-level overrides, and environment
// variables, and functions entirely on built-in defaults when no
// configuration file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the orchestration core.
type Config struct {
	Anthropic Anthropic `mapstructure:"anthropic"`
	Swarm     Swarm     `mapstructure:"swarm"`
	Retry     Retry     `mapstructure:"retry"`
	Workspace Workspace `mapstructure:"workspace"`
}

// Anthropic holds LLM provider settings.
type Anthropic struct {
	// APIKey is the Anthropic API key; empty falls back to ANTHROPIC_API_KEY.
	APIKey string `mapstructure:"api_key"`
	// Model is the primary model name.
	Model string `mapstructure:"model"`
	// FallbackModel is tried when the primary model fails.
	FallbackModel string `mapstructure:"fallback_model"`
	// UseAWSBedrock routes requests through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
}

// Swarm holds the orchestration timing tunables.
type Swarm struct {
	// AgentPollInterval is how long an agent sleeps between queue checks.
	AgentPollInterval time.Duration `mapstructure:"agent_poll_interval"`
	// MonitorInterval is how long the orchestrator sleeps between polls.
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	// TaskTimeout fails a task with no status update for this long.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// BuildTimeout bounds a whole build_project call.
	BuildTimeout time.Duration `mapstructure:"build_timeout"`
	// StopGracePeriod bounds how long Stop waits for agent loops to exit.
	StopGracePeriod time.Duration `mapstructure:"stop_grace_period"`
	// MaxRecentMessages caps each agent's message queue.
	MaxRecentMessages int `mapstructure:"max_recent_messages"`
}

// Retry holds the bounded retry and backoff policy.
type Retry struct {
	// MaxRetries is how many times a failing LLM/tool call is retried.
	MaxRetries int `mapstructure:"max_retries"`
	// BackoffBase is the initial backoff delay.
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	// BackoffCap bounds the exponential backoff delay.
	BackoffCap time.Duration `mapstructure:"backoff_cap"`
}

// Workspace holds project output settings.
type Workspace struct {
	// Dir is the directory where generated project files are mirrored.
	// Empty keeps files in shared state only.
	Dir string `mapstructure:"dir"`
	// EventLogDir is where per-build NDJSON event logs are written.
	// Empty disables the event log.
	EventLogDir string `mapstructure:"event_log_dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.fallback_model", "claude-3-5-haiku-20241022")
	v.SetDefault("swarm.agent_poll_interval", 100*time.Millisecond)
	v.SetDefault("swarm.monitor_interval", 200*time.Millisecond)
	v.SetDefault("swarm.task_timeout", 5*time.Minute)
	v.SetDefault("swarm.build_timeout", 30*time.Minute)
	v.SetDefault("swarm.stop_grace_period", 5*time.Second)
	v.SetDefault("swarm.max_recent_messages", 100)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.backoff_base", time.Second)
	v.SetDefault("retry.backoff_cap", 30*time.Second)
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Unmarshal of pure defaults cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration with the following precedence (highest first):
// environment variables, project config (.appswarm.yaml in the working
// directory), user config (~/.config/appswarm/config.yaml), defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if project := findProjectConfig(); project != "" {
		pv := viper.New()
		pv.SetConfigFile(project)
		if err := pv.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "appswarm")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "appswarm")
}

// findProjectConfig walks up from the working directory looking for a
// .appswarm.yaml override.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".appswarm.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
