// Package config loads whichfailed settings from .whichfailed.yaml, an
// optional .env file, and WHICHFAILED_* environment variables.
package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the workspace root.
const DefaultFile = ".whichfailed.yaml"

// Config holds all whichfailed configuration.
type Config struct {
	// Call-site name recognized in templates, followed by `!`.
	Macro string `yaml:"macro"`

	// Templates end in SourceExt; their expansion is written next to them
	// with OutputExt instead.
	SourceExt string `yaml:"source_ext"`
	OutputExt string `yaml:"output_ext"`

	Header bool `yaml:"header"` // prepend the generated-code header
	Gofmt  bool `yaml:"gofmt"`  // format expanded files

	// Parallel files in a batch; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	Watch   WatchConfig   `yaml:"watch"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig configures the template watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// SandboxConfig configures the interpreter behind `run`.
type SandboxConfig struct {
	Timeout        string   `yaml:"timeout"`
	AllowedImports []string `yaml:"allowed_imports"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Macro:     "whichfailed",
		SourceExt: ".gowf",
		OutputExt: ".go",
		Header:    true,
		Gofmt:     true,
		Workers:   0,
		Watch: WatchConfig{
			Debounce: "200ms",
		},
		Sandbox: SandboxConfig{
			Timeout:        "10s",
			AllowedImports: []string{"fmt", "strings", "strconv", "errors", "math", "sort", "unicode"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. A .env file next to path is loaded into the process environment
// first, without overriding variables already set, and WHICHFAILED_*
// variables are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("WHICHFAILED_MACRO"); v != "" {
		c.Macro = v
	}
	if v := os.Getenv("WHICHFAILED_SOURCE_EXT"); v != "" {
		c.SourceExt = v
	}
	if v := os.Getenv("WHICHFAILED_OUTPUT_EXT"); v != "" {
		c.OutputExt = v
	}
	if v := os.Getenv("WHICHFAILED_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WHICHFAILED_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("WHICHFAILED_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// GetWatchDebounce returns the watcher debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

// GetSandboxTimeout returns the interpreter timeout as a duration.
func (c *Config) GetSandboxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !token.IsIdentifier(c.Macro) {
		return fmt.Errorf("macro %q is not a Go identifier", c.Macro)
	}
	for _, ext := range []string{c.SourceExt, c.OutputExt} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	if c.SourceExt == c.OutputExt {
		return fmt.Errorf("source_ext and output_ext are both %q", c.SourceExt)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce: %w", err)
		}
	}
	if c.Sandbox.Timeout != "" {
		if _, err := time.ParseDuration(c.Sandbox.Timeout); err != nil {
			return fmt.Errorf("sandbox.timeout: %w", err)
		}
	}
	return c.Logging.Validate()
}
