package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// PoolCodeKey is the context key for the capacity pool being operated on
	PoolCodeKey contextKey = "pool_code"
	// OperationKey is the context key for the engine operation name
	OperationKey contextKey = "operation"
	// ShareholderIDKey is the context key for the shareholder being mutated
	ShareholderIDKey contextKey = "shareholder_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithPoolCode adds the pool code to context and returns enriched logger
func WithPoolCode(ctx context.Context, logger *zap.Logger, poolCode string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, PoolCodeKey, poolCode)
	enriched := logger.With(zap.String("pool_code", poolCode))
	return WithContext(ctx, enriched), enriched
}

// WithOperation adds the operation name to context and returns enriched logger
func WithOperation(ctx context.Context, logger *zap.Logger, operation string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, OperationKey, operation)
	enriched := logger.With(zap.String("operation", operation))
	return WithContext(ctx, enriched), enriched
}

// WithShareholderID adds the shareholder ID to context and returns enriched logger
func WithShareholderID(ctx context.Context, logger *zap.Logger, id string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ShareholderIDKey, id)
	enriched := logger.With(zap.String("shareholder_id", id))
	return WithContext(ctx, enriched), enriched
}

// GetPoolCode retrieves the pool code from context
func GetPoolCode(ctx context.Context) string {
	if v, ok := ctx.Value(PoolCodeKey).(string); ok {
		return v
	}
	return ""
}

// GetOperation retrieves the operation name from context
func GetOperation(ctx context.Context) string {
	if v, ok := ctx.Value(OperationKey).(string); ok {
		return v
	}
	return ""
}

// GetShareholderID retrieves the shareholder ID from context
func GetShareholderID(ctx context.Context) string {
	if v, ok := ctx.Value(ShareholderIDKey).(string); ok {
		return v
	}
	return ""
}

// GetTraceID extracts the trace ID from the context's span.
// Returns an empty string if no active span exists or trace is invalid.
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// GetSpanID extracts the span ID from the context's span.
func GetSpanID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.SpanID().String()
}

// WithTraceContext adds trace_id and span_id to the logger from the context's span.
// If no valid span exists, returns the original logger unchanged.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// ContextLogger provides logging with automatic trace and pool correlation.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger from the given context.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
//
// Every entry carries trace_id/span_id when a span is active, plus
// pool_code, operation and shareholder_id when present in the context.
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: FromContext(ctx),
	}
}

// WithLogger returns a ContextLogger using the provided logger instead of
// extracting from context.
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: logger,
	}
}

func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}

	l = WithTraceContext(cl.ctx, l)

	if v := GetPoolCode(cl.ctx); v != "" {
		l = l.With(zap.String("pool_code", v))
	}
	if v := GetOperation(cl.ctx); v != "" {
		l = l.With(zap.String("operation", v))
	}
	if v := GetShareholderID(cl.ctx); v != "" {
		l = l.With(zap.String("shareholder_id", v))
	}

	return l
}

// With creates a child ContextLogger with additional fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	base := cl.logger
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{
		ctx:    cl.ctx,
		logger: base.With(fields...),
	}
}

// Debug logs a debug level message with trace context.
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

// Info logs an info level message with trace context.
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

// Warn logs a warning level message with trace context.
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

// Error logs an error level message with trace context.
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}

// Zap returns the underlying zap.Logger enriched with trace context.
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enrichedLogger()
}
