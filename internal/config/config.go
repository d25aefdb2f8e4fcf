// Package config loads the run configuration from a JSON or TOML file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/naka-gawa/repo-report/internal/domain"
)

const (
	DefaultOutputDirectory = "reports"
	DefaultMaxPages        = 5
	DefaultMaxCommits      = 500
	DefaultTimeoutSeconds  = 30
)

// ErrMissingRepositories is returned when the configuration has no repositories list.
var ErrMissingRepositories = errors.New("missing 'repositories' list in config")

// Config is the configuration for a single run.
type Config struct {
	Repositories    []domain.RepositoryTarget `json:"repositories" toml:"repositories"`
	OutputDirectory string                    `json:"output_directory" toml:"output_directory"`
	// Branch pins the analyzed branch. Empty follows the repository's default branch.
	Branch       string `json:"branch" toml:"branch"`
	MaxPages     int    `json:"max_pages" toml:"max_pages"`
	MaxCommits   int    `json:"max_commits" toml:"max_commits"`
	InlineCharts bool   `json:"inline_charts" toml:"inline_charts"`
	APIBaseURL   string `json:"api_base_url" toml:"api_base_url"`
	GraphQLURL   string `json:"graphql_url" toml:"graphql_url"`

	TimeoutSeconds           int `json:"timeout_seconds" toml:"timeout_seconds"`
	RateLimitMaxSleepSeconds int `json:"rate_limit_max_sleep_seconds" toml:"rate_limit_max_sleep_seconds"`
}

// Default returns a configuration with every optional setting at its default and no repositories.
func Default() Config {
	return Config{
		OutputDirectory: DefaultOutputDirectory,
		MaxPages:        DefaultMaxPages,
		MaxCommits:      DefaultMaxCommits,
		TimeoutSeconds:  DefaultTimeoutSeconds,
	}
}

// Load reads and validates the configuration file at path.
// Files ending in .toml are decoded as TOML, everything else as JSON.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config path is empty")
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config: %w", err)
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	if c.Repositories == nil {
		return ErrMissingRepositories
	}
	for i, r := range c.Repositories {
		if strings.TrimSpace(r.Owner) == "" || strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("repositories[%d]: owner and name are required", i)
		}
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative, got %d", c.MaxPages)
	}
	if c.MaxCommits < 0 {
		return fmt.Errorf("max_commits must not be negative, got %d", c.MaxCommits)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds)
	}
	if c.RateLimitMaxSleepSeconds < 0 {
		return fmt.Errorf("rate_limit_max_sleep_seconds must not be negative, got %d", c.RateLimitMaxSleepSeconds)
	}
	if c.OutputDirectory == "" {
		return fmt.Errorf("output_directory must not be empty")
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RateLimitMaxSleep returns the longest single wait on a secondary rate limit. Zero disables waiting.
func (c Config) RateLimitMaxSleep() time.Duration {
	return time.Duration(c.RateLimitMaxSleepSeconds) * time.Second
}

// ParseTarget parses an "owner/name" argument.
func ParseTarget(s string) (domain.RepositoryTarget, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return domain.RepositoryTarget{}, fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return domain.RepositoryTarget{Owner: owner, Name: name}, nil
}
