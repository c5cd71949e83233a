// Package logging provides the structured logger shared by the gateway.
// It wraps logrus and carries request-scoped identifiers through context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type contextKey string

// Context keys for request-scoped fields.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

// Logger wraps a logrus logger with context-aware field extraction.
type Logger struct {
	log *logrus.Logger
}

// New creates a logger writing JSON to the given writer at the given level.
// Unknown level strings fall back to info.
func New(out io.Writer, level string) *Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return &Logger{log: log}
}

// Default returns a logger writing to stderr at info level.
func Default() *Logger {
	return New(os.Stderr, "info")
}

// WithContext returns an entry carrying any request-scoped fields present in
// the context.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(l.log)
	if ctx == nil {
		return entry
	}
	if reqID := GetRequestID(ctx); reqID != "" {
		entry = entry.WithField("request_id", reqID)
	}
	if userID := GetUserID(ctx); userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	return entry
}

// WithError returns an entry carrying the error field.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.log.WithError(err)
}

// WithFields returns an entry carrying the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.log.WithFields(fields)
}

func (l *Logger) Debug(args ...interface{}) { l.log.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.log.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.log.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.log.Error(args...) }
func (l *Logger) Fatal(args ...interface{}) { l.log.Fatal(args...) }

// WithRequestID stores a request id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID extracts the request id from the context, if any.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID stores the authenticated user id in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the authenticated user id from the context, if any.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}
