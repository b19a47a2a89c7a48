// Package logging provides structured logging built on logrus with request-scoped trace IDs.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// TraceIDKey is the context key holding the request trace ID.
	TraceIDKey contextKey = "trace_id"
	// UserIDKey is the context key holding the verified mini-app user ID.
	UserIDKey contextKey = "user_id"
)

// Logger wraps a logrus logger tagged with the owning service name.
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a logger for service. level is a logrus level name; format is "json" or "text".
func New(service, level, format string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{Logger: l, service: service}
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns a process-wide logger used when none has been injected.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New("miniapp-admin", "info", "text")
	})
	return defaultLogger
}

// SetOutput redirects log output; tests use it to capture entries.
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// Service returns the service name attached to every entry.
func (l *Logger) Service() string {
	return l.service
}

// WithContext returns an entry carrying the service name and any trace/user IDs in ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("service", l.service)
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	if userID := GetUserID(ctx); userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	return entry
}

// LogRequest records a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})

	switch {
	case status >= 500:
		entry.Error("request failed")
	case status >= 400:
		entry.Warn("request rejected")
	default:
		entry.Info("request completed")
	}
}

// LogSecurityEvent records an event relevant to access control, such as throttling or a
// rejected session payload.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.WithContext(ctx).
		WithField("security_event", event).
		WithFields(logrus.Fields(fields)).
		Warn("security event")
}

// NewTraceID generates a fresh trace ID.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID stores traceID in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, if any.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

// WithUserID stores a verified user ID in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the user ID stored in ctx, if any.
func GetUserID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}
