package config

import (
	"fmt"
	"strings"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`                // debug, info, warn, error
	Format     string          `yaml:"format"`               // json, console
	File       string          `yaml:"file,omitempty"`       // extra output path besides stderr
	Categories map[string]bool `yaml:"categories,omitempty"` // per-category toggles; empty enables all
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	enabled, exists := c.Categories[category]
	return !exists || enabled
}

// Outputs lists the zap output paths.
func (c *LoggingConfig) Outputs() []string {
	out := []string{"stderr"}
	if c.File != "" {
		out = append(out, c.File)
	}
	return out
}

// Validate checks level and format.
func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q is not one of json, console", c.Format)
	}
	return nil
}
