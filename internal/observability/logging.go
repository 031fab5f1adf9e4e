package observability

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level    string `yaml:"level"`  // debug, info, warn, error
	Format   string `yaml:"format"` // json, pretty
	Output   string `yaml:"output"` // stdout, file, discard
	FilePath string `yaml:"file_path"`
}

// Logger wraps logrus with the terrama2 field conventions.
type Logger struct {
	*logrus.Logger
}

// NewLogger creates a structured logger.
func NewLogger(cfg LogConfig) *Logger {
	l := logrus.New()

	// Set level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	// Set format
	switch cfg.Format {
	case "pretty":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000000Z",
		})
	default: // json
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000000Z",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	// Set output
	switch cfg.Output {
	case "file":
		if cfg.FilePath != "" {
			f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				l.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}
	case "discard":
		l.SetOutput(io.Discard)
	default:
		l.SetOutput(os.Stdout)
	}

	return &Logger{Logger: l}
}

// SetLevelString changes the level at runtime. Unknown levels are rejected and
// the current level is kept.
func (l *Logger) SetLevelString(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.SetLevel(parsed)
	return nil
}

type logContextKey string

const traceIDKey logContextKey = "trace_id"

// WithTraceID stores a request trace id for log correlation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns the request trace id, or the id of the active
// OpenTelemetry span when none was stored.
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok && v != "" {
		return v
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// WithTrace annotates an entry with the trace id carried by ctx.
func WithTrace(entry *logrus.Entry, ctx context.Context) *logrus.Entry {
	entry = entry.WithContext(ctx)
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

// WithContext returns a log entry enriched with trace context.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	return WithTrace(logrus.NewEntry(l.Logger), ctx)
}

// ForComponent returns a logger scoped to a component, e.g.
// "service" logs under target terrama2::service.
func (l *Logger) ForComponent(component string) *logrus.Entry {
	return l.Logger.WithField("target", "terrama2::"+component)
}

// NopLogger discards everything. Used by tests and by constructors handed a
// nil logger.
func NopLogger() *Logger {
	return NewLogger(LogConfig{Level: "panic", Output: "discard"})
}
