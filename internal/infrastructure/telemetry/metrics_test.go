package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetricHelpers(t *testing.T) {
	reader, provider := newManualMeter(t)
	meter := provider.Meter("test")
	ctx := context.Background()

	counter, err := NewCounter(meter, "test_total", "test counter", "{op}")
	require.NoError(t, err)
	counter.Inc(ctx, AttrPoolCode.String("default"))
	counter.Add(ctx, 4, AttrPoolCode.String("default"))

	hist, err := NewHistogram(meter, HistogramOpts{
		Name:       "test_duration_seconds",
		Unit:       "s",
		Boundaries: MutationDurationBuckets,
	})
	require.NoError(t, err)
	hist.RecordDuration(ctx, 20*time.Millisecond)
	hist.Record(ctx, 0.3)

	gauge, err := NewGauge(meter, "test_holders", "holders", "{shareholders}")
	require.NoError(t, err)
	gauge.Record(ctx, 3)
	gauge.Record(ctx, 2)

	floatGauge, err := NewFloatGauge(meter, "test_remaining", "remaining", "{currency}")
	require.NoError(t, err)
	floatGauge.Record(ctx, 12.5)

	metrics := collectMetrics(t, reader)

	sum := metrics["test_total"].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)

	h := metrics["test_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(2), h.DataPoints[0].Count)
	assert.Equal(t, MutationDurationBuckets, h.DataPoints[0].Bounds)

	g := metrics["test_holders"].Data.(metricdata.Gauge[int64])
	require.Len(t, g.DataPoints, 1)
	assert.Equal(t, int64(2), g.DataPoints[0].Value)

	fg := metrics["test_remaining"].Data.(metricdata.Gauge[float64])
	require.Len(t, fg.DataPoints, 1)
	assert.InDelta(t, 12.5, fg.DataPoints[0].Value, 0.0001)
}
