// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	GlobalLogger = NewLogger(os.Stdout, "info")
}

// NewLogger builds a JSON logger writing to w at the named level
// (debug, info, warn, error). Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetGlobalLogger replaces GlobalLogger.
func SetGlobalLogger(l *Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

const CorrelationID LogContextKey = "correlation_id"

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// contextAttrs returns the correlation and trace ids carried by ctx.
func contextAttrs(ctx context.Context) []any {
	attrs := []any{slog.String("correlation_id", ExtractCorrelationID(ctx))}
	if id := TraceID(ctx); id != "" {
		attrs = append(attrs, slog.String("trace_id", id))
	}
	return attrs
}

func withFields(attrs []any, fields map[string]interface{}) []any {
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// RepoLogger logs persistence operations against one storage slot.
type RepoLogger struct {
	slot   string
	logger *Logger
}

// NewRepoLogger creates a new RepoLogger for the given storage slot.
func NewRepoLogger(slot string) *RepoLogger {
	return &RepoLogger{slot: slot}
}

// WithLogger returns a copy that writes to logger instead of GlobalLogger.
func (l *RepoLogger) WithLogger(logger *Logger) *RepoLogger {
	return &RepoLogger{slot: l.slot, logger: logger}
}

func (l *RepoLogger) target() *Logger {
	if l.logger != nil {
		return l.logger
	}
	return GlobalLogger
}

func (l *RepoLogger) log(ctx context.Context, level slog.Level, msg, operation string, fields map[string]interface{}) {
	attrs := append([]any{
		slog.String("slot", l.slot),
		slog.String("operation", operation),
	}, contextAttrs(ctx)...)
	l.target().Log(ctx, level, msg, withFields(attrs, fields)...)
}

// LogRead logs a slot read at debug level.
func (l *RepoLogger) LogRead(ctx context.Context, fields map[string]interface{}) {
	l.log(ctx, slog.LevelDebug, "repository read", "read", fields)
}

// LogUpdate logs a slot write at debug level.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]interface{}) {
	l.log(ctx, slog.LevelDebug, "repository update", "update", fields)
}

// LogError logs a storage failure. Callers swallow the error afterwards, so
// this record is the only trace it leaves.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.log(ctx, slog.LevelError, "repository error", operation, map[string]interface{}{"error": err.Error()})
}

// StateLogger logs store lifecycle events: loads and applied mutations.
type StateLogger struct {
	logger *Logger
}

// NewStateLogger returns a StateLogger bound to GlobalLogger at call time.
func NewStateLogger() *StateLogger {
	return &StateLogger{}
}

// WithLogger returns a copy that writes to logger.
func (l *StateLogger) WithLogger(logger *Logger) *StateLogger {
	return &StateLogger{logger: logger}
}

func (l *StateLogger) target() *Logger {
	if l.logger != nil {
		return l.logger
	}
	return GlobalLogger
}

// LogLoad records how the state was obtained at startup.
func (l *StateLogger) LogLoad(ctx context.Context, outcome string, fields map[string]interface{}) {
	attrs := append([]any{slog.String("outcome", outcome)}, contextAttrs(ctx)...)
	l.target().InfoContext(ctx, "state loaded", withFields(attrs, fields)...)
}

// LogDegraded records that a persisted state was discarded.
func (l *StateLogger) LogDegraded(ctx context.Context, err error) {
	attrs := append([]any{slog.String("error", err.Error())}, contextAttrs(ctx)...)
	l.target().WarnContext(ctx, "discarding persisted state", attrs...)
}

// LogMutation records an applied store mutation.
func (l *StateLogger) LogMutation(ctx context.Context, operation string, fields map[string]interface{}) {
	attrs := append([]any{
		slog.String("operation", operation),
		slog.String("type", "mutation"),
	}, contextAttrs(ctx)...)
	l.target().InfoContext(ctx, "state mutated", withFields(attrs, fields)...)
}
