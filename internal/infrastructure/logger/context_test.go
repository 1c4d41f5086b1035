package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestFromContext(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		base := zap.NewExample()
		ctx := WithContext(context.Background(), base)
		assert.Same(t, base, FromContext(ctx))
	})

	t.Run("returns nop logger when absent", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("ignores values of the wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		assert.NotNil(t, FromContext(ctx))
	})
}

func TestContextEnrichment(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, l := WithPoolCode(context.Background(), base, "default")
	ctx, l = WithOperation(ctx, l, "create")
	ctx, l = WithShareholderID(ctx, l, "3f0c")

	assert.Equal(t, "default", GetPoolCode(ctx))
	assert.Equal(t, "create", GetOperation(ctx))
	assert.Equal(t, "3f0c", GetShareholderID(ctx))

	l.Info("mutation committed")
	require.Len(t, recorded.All(), 1)
	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "default", fields["pool_code"])
	assert.Equal(t, "create", fields["operation"])
	assert.Equal(t, "3f0c", fields["shareholder_id"])
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetPoolCode(ctx))
	assert.Empty(t, GetOperation(ctx))
	assert.Empty(t, GetShareholderID(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestTraceCorrelation(t *testing.T) {
	t.Run("noop span is not valid", func(t *testing.T) {
		ctx, span := noop.NewTracerProvider().Tracer("test").Start(context.Background(), "op")
		defer span.End()

		base := zap.NewNop()
		assert.Empty(t, GetTraceID(ctx))
		assert.Equal(t, base, WithTraceContext(ctx, base))
	})

	t.Run("recording span adds ids", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
		assert.Equal(t, span.SpanContext().SpanID().String(), GetSpanID(ctx))

		core, recorded := observer.New(zapcore.InfoLevel)
		WithTraceContext(ctx, zap.New(core)).Info("traced")

		fields := fieldMap(recorded.All()[0])
		assert.Equal(t, GetTraceID(ctx), fields["trace_id"])
		assert.Equal(t, GetSpanID(ctx), fields["span_id"])
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("L uses logger from context and adds context fields", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		ctx := WithContext(context.Background(), zap.New(core))
		ctx = context.WithValue(ctx, PoolCodeKey, "north")

		cl := L(ctx)
		cl.Debug("d")
		cl.Info("i")
		cl.Warn("w")
		cl.Error("e")

		entries := recorded.All()
		require.Len(t, entries, 4)
		for _, e := range entries {
			assert.Equal(t, "north", fieldMap(e)["pool_code"])
		}
	})

	t.Run("With adds fields", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		WithLogger(context.Background(), zap.New(core)).
			With(zap.String("kind", "capacity_exceeded")).
			Info("rejected")

		assert.Equal(t, "capacity_exceeded", fieldMap(recorded.All()[0])["kind"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		cl := WithLogger(context.Background(), nil)
		assert.NotPanics(t, func() {
			cl.Info("ignored")
			cl.With(zap.Int("n", 1)).Warn("ignored")
		})
		assert.NotNil(t, cl.Zap())
	})

	t.Run("empty context values are omitted", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		WithLogger(context.Background(), zap.New(core)).Info("plain")

		fields := fieldMap(recorded.All()[0])
		assert.NotContains(t, fields, "pool_code")
		assert.NotContains(t, fields, "trace_id")
	})
}
