package logging

import (
	"context"
	"os"
	"strings"

	"github.com/phuslu/log"
)

type requestIDKey struct{}

// Setup configures the process-wide logger. Production writes JSON lines,
// everything else gets the console writer.
func Setup(env, level string) {
	var w log.Writer = &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true}
	if env == "production" {
		w = &log.IOWriter{Writer: os.Stderr}
	}
	log.DefaultLogger = log.Logger{
		Level:  log.ParseLevel(strings.ToLower(level)),
		Caller: 0,
		Writer: w,
	}
}

// WithRequestID stores the request id on a standard context.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID from a standard context
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// Logger provides structured logging for services
type Logger struct {
	requestID string
}

// New creates a logger with request context
func New(ctx context.Context) *Logger {
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = "unknown"
	}
	return &Logger{requestID: requestID}
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	log.Error().Str("request_id", l.requestID).Str("operation", operation).Err(err).Msg("")
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...any) {
	log.Error().Str("request_id", l.requestID).Str("operation", operation).Msgf(format, args...)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...any) {
	log.Info().Str("request_id", l.requestID).Str("operation", operation).Msgf(format, args...)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...any) {
	log.Warn().Str("request_id", l.requestID).Str("operation", operation).Msgf(format, args...)
}
