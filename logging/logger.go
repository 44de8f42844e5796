package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

var slogLevels = [...]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

// Slog maps the level onto slog. Out of range values map to info.
func (l LogLevel) Slog() slog.Level {
	if l < 0 || int(l) >= len(slogLevels) {
		return slog.LevelInfo
	}
	return slogLevels[l]
}

// String returns DEBUG, INFO, WARN or ERROR.
func (l LogLevel) String() string { return l.Slog().String() }

// ParseLevel maps a level name (debug, info, warn, error) to a LogLevel.
// Unrecognized names map to LogLevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface used by the client.
// Arguments after msg are alternating key/value pairs, as with slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
// *slog.Logger already has the right method set; the adapter only pins it.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger. A nil logger uses
// slog.Default().
func NewSlogAdapter(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{Logger: logger}
}

// ClientLogger is the Logger used by the client packages. Attributes added
// with the With* methods are attached to every entry; the receiver is never
// modified.
type ClientLogger struct {
	handler slog.Handler
	level   LogLevel
	attrs   []slog.Attr
}

// LoggerConfig configures construction of a ClientLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr}
}

// NewLogger builds a ClientLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *ClientLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.Slog(), AddSource: cfg.AddSource}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, opts)
	}

	l := &ClientLogger{handler: h, level: cfg.Level}
	if cfg.Component != "" {
		l.attrs = append(l.attrs, slog.String("component", cfg.Component))
	}
	for k, v := range cfg.CustomAttrs {
		l.attrs = append(l.attrs, slog.Any(k, v))
	}
	return l
}

// NewSlogLogger creates a ClientLogger writing to stderr.
func NewSlogLogger(level LogLevel, format string, addSource bool) *ClientLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func (l *ClientLogger) with(attr slog.Attr) *ClientLogger {
	attrs := make([]slog.Attr, 0, len(l.attrs)+1)
	for _, a := range l.attrs {
		if a.Key != attr.Key {
			attrs = append(attrs, a)
		}
	}
	return &ClientLogger{handler: l.handler, level: l.level, attrs: append(attrs, attr)}
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *ClientLogger) WithContext(key string, value any) *ClientLogger {
	return l.with(slog.Any(key, value))
}

// WithComponent sets the logical component (client, stream, ...).
func (l *ClientLogger) WithComponent(c string) *ClientLogger {
	return l.with(slog.String("component", c))
}

// WithAgent attaches the agent identifier the entries refer to.
func (l *ClientLogger) WithAgent(agentID string) *ClientLogger {
	return l.with(slog.String("agent_id", agentID))
}

func (l *ClientLogger) log(level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, log and the level method
	r := slog.NewRecord(time.Now(), level.Slog(), msg, pcs[0])
	r.AddAttrs(l.attrs...)
	r.Add(args...)
	_ = l.handler.Handle(context.Background(), r)
}

// Debug logs at debug level.
func (l *ClientLogger) Debug(msg string, args ...any) { l.log(LogLevelDebug, msg, args...) }

// Info logs at info level.
func (l *ClientLogger) Info(msg string, args ...any) { l.log(LogLevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *ClientLogger) Warn(msg string, args ...any) { l.log(LogLevelWarn, msg, args...) }

// Error logs at error level.
func (l *ClientLogger) Error(msg string, args ...any) { l.log(LogLevelError, msg, args...) }

// LogRequest records the outcome of one HTTP round trip: debug on success,
// error on failure.
func (l *ClientLogger) LogRequest(method, path string, status int, dur time.Duration, err error) {
	args := []any{"method", method, "path", path, "status", status, "duration", dur}
	if err != nil {
		l.Error("request failed", append(args, "error", err.Error())...)
		return
	}
	l.Debug("request completed", args...)
}

// StartTimer returns a func that logs the time elapsed since StartTimer at
// debug level. The client uses it for operations that outlive one round
// trip, such as streams.
func (l *ClientLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Debug("operation completed", "operation", op, "duration", time.Since(start)) }
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug discards the entry.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the entry.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the entry.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the entry.
func (NoOpLogger) Error(string, ...any) {}
