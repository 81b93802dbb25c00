package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DefaultRefreshInterval = 30 // seconds
	DefaultMaxPipelines    = 50
	DefaultLogLevel        = "info"
)

// ErrNotConfigured is matched by every error RequireGitLab returns
var ErrNotConfigured = errors.New("not configured")

// ConfigError reports a missing or invalid setting
type ConfigError struct {
	Setting string
	Env     string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s is invalid: %s", e.Setting, e.Reason)
	}
	return fmt.Sprintf("%s not configured. Set %s or add to ~/.glpipe/config.json", e.Setting, e.Env)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrNotConfigured
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".glpipe"), nil
}

// Config is the root configuration struct
type Config struct {
	GitLab GitLabConfig `json:"gitlab,omitempty"`

	CacheDir        string `json:"cache_dir,omitempty" envconfig:"GLPIPE_CACHE_DIR"`
	RefreshInterval int    `json:"refresh_interval,omitempty" envconfig:"GITLAB_REFRESH_INTERVAL"` // seconds
	MaxPipelines    int    `json:"max_pipelines,omitempty" envconfig:"GLPIPE_MAX_PIPELINES"`
	LogLevel        string `json:"log_level,omitempty" envconfig:"GLPIPE_LOG_LEVEL"`
}

// GitLabConfig holds GitLab-specific configuration
type GitLabConfig struct {
	URL     string `json:"url,omitempty" envconfig:"GITLAB_URL"`
	Token   string `json:"token,omitempty" envconfig:"GITLAB_TOKEN"`
	Project string `json:"project,omitempty" envconfig:"GITLAB_PROJECT"` // path with namespace or numeric id
}

// Refresh returns the auto-refresh interval as a duration
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// Load reads config from file and applies environment variable overrides
func Load() (*Config, error) {
	cfg, err := LoadFromFile()
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads config from file only (no env overrides)
// Used when we want to modify and write back without losing env-only values
func LoadFromFile() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// defaults are applied after the env overlay so that envconfig never
// overwrites a value that only the file sets
func (c *Config) applyDefaults() error {
	if c.CacheDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}
		c.CacheDir = filepath.Join(dir, "cache")
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.MaxPipelines <= 0 {
		c.MaxPipelines = DefaultMaxPipelines
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return nil
}

// Save writes the config to file. The token is never persisted.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	out := *cfg
	out.GitLab.Token = ""

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// RequireGitLab validates that GitLab config is present
func (c *Config) RequireGitLab() error {
	if c.GitLab.URL == "" {
		return &ConfigError{Setting: "GitLab URL", Env: "GITLAB_URL"}
	}
	if u, err := url.Parse(c.GitLab.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Setting: "GitLab URL", Env: "GITLAB_URL", Reason: fmt.Sprintf("%q is not an absolute URL", c.GitLab.URL)}
	}
	if c.GitLab.Token == "" {
		return &ConfigError{Setting: "GitLab token", Env: "GITLAB_TOKEN"}
	}
	if c.GitLab.Project == "" {
		return &ConfigError{Setting: "GitLab project", Env: "GITLAB_PROJECT"}
	}
	return nil
}
