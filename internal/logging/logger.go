// Package logging provides categorized logging for whichfailed on top of zap.
// Until Initialize is called every category is a silent no-op, so library
// packages can log unconditionally.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot    Category = "boot"    // CLI startup, config resolution
	CategoryExpand  Category = "expand"  // template expansion
	CategoryWatch   Category = "watch"   // file watcher
	CategorySandbox Category = "sandbox" // interpreter runs
	CategorySim     Category = "sim"     // chain simulation
)

// Logger writes printf-style messages for one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var mu sync.RWMutex

var (
	base      = zap.NewNop()
	enabled   map[string]bool // nil enables every category
	loggers   = make(map[Category]*Logger)
	nopLogger = zap.NewNop().Sugar()
)

// Options controls how Build constructs the backing logger.
type Options struct {
	Level   string   // debug, info, warn, error
	Format  string   // json or console
	Outputs []string // zap output paths; stderr when empty
	Verbose bool     // forces debug level
}

// Build constructs a zap logger from opts.
func Build(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(opts.Format) {
	case "", "console":
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = l
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if len(opts.Outputs) > 0 {
		cfg.OutputPaths = opts.Outputs
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Initialize installs l as the backing logger. categories restricts output
// to the named categories; an empty map enables all of them.
func Initialize(l *zap.Logger, categories map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	base = l
	enabled = nil
	if len(categories) > 0 {
		enabled = make(map[string]bool, len(categories))
		for k, v := range categories {
			enabled[k] = v
		}
	}
	loggers = make(map[Category]*Logger)
}

// Reset restores the silent default.
func Reset() {
	Initialize(nil, nil)
}

// Sync flushes the backing logger.
func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}

// IsCategoryEnabled reports whether category produces output.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabled(category)
}

func categoryEnabled(category Category) bool {
	if enabled == nil {
		return true
	}
	return enabled[string(category)]
}

// Get returns the logger for category.
func Get(category Category) *Logger {
	mu.RLock()
	l, ok := loggers[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	sugar := nopLogger
	if categoryEnabled(category) {
		sugar = base.Named(string(category)).Sugar()
	}
	l = &Logger{category: category, sugar: sugar}
	loggers[category] = l
	return l
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a logger carrying structured fields alongside each message.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// Expand logs to the expand category
func Expand(format string, args ...interface{}) {
	Get(CategoryExpand).Info(format, args...)
}

// ExpandDebug logs debug to the expand category
func ExpandDebug(format string, args ...interface{}) {
	Get(CategoryExpand).Debug(format, args...)
}

// ExpandWarn logs a warning to the expand category
func ExpandWarn(format string, args ...interface{}) {
	Get(CategoryExpand).Warn(format, args...)
}

// Watch logs to the watch category
func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Info(format, args...)
}

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) {
	Get(CategoryWatch).Debug(format, args...)
}

// WatchError logs an error to the watch category
func WatchError(format string, args ...interface{}) {
	Get(CategoryWatch).Error(format, args...)
}

// SandboxDebug logs debug to the sandbox category
func SandboxDebug(format string, args ...interface{}) {
	Get(CategorySandbox).Debug(format, args...)
}

// SimDebug logs debug to the sim category
func SimDebug(format string, args ...interface{}) {
	Get(CategorySim).Debug(format, args...)
}
