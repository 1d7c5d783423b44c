// Package logging is a categorized logger over a single *zap.Logger core,
// in the shape of the teacher's internal/logging/logger.go (named
// Category constants, a package-level registry, a Get(category)
// accessor) but built on go.uber.org/zap the way the teacher's
// cmd/nerd/main.go configures its root logger, rather than the
// teacher's own hand-rolled stdlib-log file logger.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem. Each engine package gets its own so
// a watch session can isolate, say, beta-network churn from agenda churn.
type Category string

const (
	CategoryBoot   Category = "boot"
	CategoryAlpha  Category = "alpha"
	CategoryBeta   Category = "beta"
	CategoryAgenda Category = "agenda"
	CategoryTMS    Category = "tms"
	CategoryEngine Category = "engine"
	CategoryCLI    Category = "cli"
)

var allCategories = []Category{
	CategoryBoot, CategoryAlpha, CategoryBeta, CategoryAgenda,
	CategoryTMS, CategoryEngine, CategoryCLI,
}

// Logger wraps a zap.SugaredLogger scoped to one category, so every line
// it emits carries a "category" field without call sites repeating it.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu       sync.RWMutex
	root     *zap.Logger
	loggers  = make(map[Category]*Logger)
	debugOn  bool
)

// Initialize builds the root zap logger. debug selects the development
// encoder config (human-readable, DebugLevel) the way the teacher's
// cmd/nerd root command switches configs on its --verbose flag;
// otherwise it mirrors zap.NewProductionConfig()'s JSON/InfoLevel
// defaults.
func Initialize(debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	built, err := cfg.Build()
	if err != nil {
		return err
	}
	root = built
	debugOn = debug
	loggers = make(map[Category]*Logger)
	for _, c := range allCategories {
		loggers[c] = &Logger{category: c, sugar: root.Sugar().With("category", string(c))}
	}
	return nil
}

// IsDebugMode reports whether Initialize was last called with debug set.
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debugOn
}

// Get returns the Logger for category, lazily wiring a no-op root if
// Initialize was never called so library code never has to nil-check.
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
	if root == nil {
		root = zap.NewNop()
	}
	l = &Logger{category: category, sugar: root.Sugar().With("category", string(category))}
	loggers[category] = l
	return l
}

// Sync flushes every category's buffered log entries, meant to run once
// at process shutdown (deferred in cmd/crucible's runRoot).
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a derived Logger carrying additional structured fields,
// for per-firing or per-rule correlation the way the teacher's
// ContextLogger attaches a request-scoped field set.
func (l *Logger) With(keyValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keyValues...)}
}

// Boot, BootDebug, etc. are convenience wrappers over the "boot" and
// "engine" categories, mirroring the teacher's package-level
// convenience functions (Boot, BootDebug, Kernel, ...) for the
// categories call sites reach for most often.
func Boot(format string, args ...interface{})   { Get(CategoryBoot).Infof(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debugf(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warnf(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Errorf(format, args...) }

func Engine(format string, args ...interface{})   { Get(CategoryEngine).Infof(format, args...) }
func EngineDebug(format string, args ...interface{}) { Get(CategoryEngine).Debugf(format, args...) }
