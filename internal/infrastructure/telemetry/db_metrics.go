package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration // default 200ms
}

// DBMetrics holds the query instruments and the pool-stats callback
// registration.
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter

	poolRegistration metric.Registration

	config DBMetricsConfig
	logger *zap.Logger
}

// NewDBMetrics creates the query instruments. When sqlDB is non-nil the
// connection pool is observed on every collection cycle.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}

	m := &DBMetrics{config: cfg, logger: logger}

	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Total number of database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}

	if sqlDB != nil {
		if err := m.observePool(meter, sqlDB); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *DBMetrics) observePool(meter metric.Meter, sqlDB *sql.DB) error {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxConnections, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}

	m.poolRegistration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(maxConnections, int64(stats.MaxOpenConnections))
		return nil
	}, connections, maxConnections)
	return err
}

// RecordQuery counts one statement and its latency
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}

	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))

	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// Register installs the query callbacks on db
func (m *DBMetrics) Register(db *gorm.DB) error {
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			ctx := db.Statement.Context
			if ctx == nil {
				return
			}
			op := operation
			if op == "" {
				op = detectOperationType(db.Statement.SQL.String())
			}
			elapsed, _ := sinceQueryStart(ctx, metricsStartTimeKey)
			m.RecordQuery(ctx, op, db.Statement.Table, elapsed)
		}
	}
	if err := registerAround(db, "db_metrics", markQueryStart(metricsStartTimeKey), after); err != nil {
		return err
	}
	m.logger.Debug("database metrics registered",
		zap.Duration("slow_query_threshold", m.config.SlowQueryThreshold))
	return nil
}

// Stop unregisters the pool callback. Safe to call more than once.
func (m *DBMetrics) Stop() {
	if m.poolRegistration == nil {
		return
	}
	if err := m.poolRegistration.Unregister(); err != nil {
		m.logger.Debug("pool stats callback already unregistered", zap.Error(err))
	}
	m.poolRegistration = nil
}

func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}

// InstrumentDatabase registers tracing and metrics on db according to the
// configs. The returned DBMetrics is nil when metrics are disabled.
func InstrumentDatabase(db *gorm.DB, providers *Providers, tracing DBTracingConfig, metrics DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if err := NewDBTracingPlugin(tracing, logger).Register(db); err != nil {
		return nil, err
	}
	if !metrics.Enabled || providers == nil || !providers.Enabled() {
		return nil, nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(providers.Meter("db.client"), sqlDB, metrics, logger)
	if err != nil {
		return nil, err
	}
	if err := m.Register(db); err != nil {
		m.Stop()
		return nil, err
	}
	return m, nil
}
