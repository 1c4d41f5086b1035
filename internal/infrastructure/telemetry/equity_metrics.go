package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Mutation outcomes used as the outcome attribute
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// EquityMetrics records shareholder mutations and the capacity position of
// each pool after every commit.
type EquityMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	mutationTotal    *Counter
	mutationDuration *Histogram

	poolInvested  *FloatGauge
	poolRemaining *FloatGauge
	poolHolders   *Gauge
	poolShares    *Gauge
}

// EquityMetricsConfig holds configuration for equity metrics.
type EquityMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewEquityMetrics creates a new EquityMetrics instance.
func NewEquityMetrics(cfg EquityMetricsConfig) (*EquityMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	em := &EquityMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	em.mutationTotal, err = NewCounter(
		cfg.Meter,
		"equity_mutation_total",
		"Total number of shareholder mutations by operation and outcome",
		"{mutations}",
	)
	if err != nil {
		return nil, err
	}

	em.mutationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "equity_mutation_duration_seconds",
		Description: "Time spent in a locked shareholder mutation",
		Unit:        "s",
		Boundaries:  MutationDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	em.poolInvested, err = NewFloatGauge(
		cfg.Meter,
		"equity_pool_invested_amount",
		"Sum of invested amounts in the pool",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	em.poolRemaining, err = NewFloatGauge(
		cfg.Meter,
		"equity_pool_remaining_capacity",
		"Capacity left in the pool",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	em.poolHolders, err = NewGauge(
		cfg.Meter,
		"equity_pool_holder_count",
		"Number of shareholders in the pool",
		"{shareholders}",
	)
	if err != nil {
		return nil, err
	}

	em.poolShares, err = NewGauge(
		cfg.Meter,
		"equity_pool_allocated_shares",
		"Shares apportioned to shareholders",
		"{shares}",
	)
	if err != nil {
		return nil, err
	}

	return em, nil
}

// RecordMutation counts one create, update or delete and its duration
func (em *EquityMetrics) RecordMutation(ctx context.Context, poolCode, operation, outcome string, d time.Duration) {
	em.mutationTotal.Inc(ctx,
		AttrPoolCode.String(poolCode),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
	em.mutationDuration.RecordDuration(ctx, d,
		AttrPoolCode.String(poolCode),
		AttrOperation.String(operation),
	)
}

// PoolPosition is the post-commit state reported for a pool
type PoolPosition struct {
	PoolCode          string
	TotalInvested     decimal.Decimal
	RemainingCapacity decimal.Decimal
	HolderCount       int
	AllocatedShares   int64
}

// RecordPoolPosition records the capacity gauges for a pool
func (em *EquityMetrics) RecordPoolPosition(ctx context.Context, pos PoolPosition) {
	attr := AttrPoolCode.String(pos.PoolCode)
	em.poolInvested.Record(ctx, pos.TotalInvested.InexactFloat64(), attr)
	em.poolRemaining.Record(ctx, pos.RemainingCapacity.InexactFloat64(), attr)
	em.poolHolders.Record(ctx, int64(pos.HolderCount), attr)
	em.poolShares.Record(ctx, pos.AllocatedShares, attr)

	em.logger.Debug("pool position recorded",
		zap.String("pool_code", pos.PoolCode),
		zap.String("remaining_capacity", pos.RemainingCapacity.String()),
		zap.Int("holder_count", pos.HolderCount))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewEquityMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
