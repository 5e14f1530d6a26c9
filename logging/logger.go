package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger defines the minimal logging interface used throughout agentcore.
// This allows users to provide their own logger implementation or use the
// built-in slog adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// Config configures construction of a structured logger.
type Config struct {
	Level     slog.Level
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
}

// New builds a Logger from a config (or defaults if nil).
func New(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// RunLogger decorates a Logger with run-scoped attributes (session id, agent
// run id, component) that are attached to every entry. It is cheap to copy via
// the With* helpers.
type RunLogger struct {
	base      Logger
	component string
	sessionID string
	runID     string
}

// NewRunLogger wraps base; a nil base falls back to NoOpLogger.
func NewRunLogger(base Logger) *RunLogger {
	if base == nil {
		base = NoOpLogger{}
	}
	return &RunLogger{base: base}
}

func (l *RunLogger) clone() *RunLogger {
	nl := *l
	return &nl
}

// WithComponent sets the logical component (engine, mcp, trace, etc.).
func (l *RunLogger) WithComponent(c string) *RunLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithRun attaches session and agent run identifiers.
func (l *RunLogger) WithRun(sessionID, runID string) *RunLogger {
	nl := l.clone()
	nl.sessionID = sessionID
	nl.runID = runID
	return nl
}

func (l *RunLogger) attrs(args []any) []any {
	out := make([]any, 0, len(args)+6)
	if l.component != "" {
		out = append(out, "component", l.component)
	}
	if l.sessionID != "" {
		out = append(out, "session_id", l.sessionID)
	}
	if l.runID != "" {
		out = append(out, "agent_run_id", l.runID)
	}
	return append(out, args...)
}

// Debug logs at debug level with run-scoped attributes.
func (l *RunLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.attrs(args)...) }

// Info logs at info level with run-scoped attributes.
func (l *RunLogger) Info(msg string, args ...any) { l.base.Info(msg, l.attrs(args)...) }

// Warn logs at warn level with run-scoped attributes.
func (l *RunLogger) Warn(msg string, args ...any) { l.base.Warn(msg, l.attrs(args)...) }

// Error logs at error level with run-scoped attributes.
func (l *RunLogger) Error(msg string, args ...any) { l.base.Error(msg, l.attrs(args)...) }

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug discards a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards an error message.
func (NoOpLogger) Error(string, ...any) {}
