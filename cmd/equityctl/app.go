package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	appequity "github.com/lending/equity/internal/application/equity"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/infrastructure/config"
	"github.com/lending/equity/internal/infrastructure/event"
	"github.com/lending/equity/internal/infrastructure/lock"
	"github.com/lending/equity/internal/infrastructure/logger"
	"github.com/lending/equity/internal/infrastructure/migration"
	"github.com/lending/equity/internal/infrastructure/persistence"
	"github.com/lending/equity/internal/infrastructure/strategy"
	"github.com/lending/equity/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds everything one command invocation needs. withApp builds it before
// the command body runs and closes it afterwards.
type app struct {
	cfg *config.Config
	log *zap.Logger

	providers   *telemetry.Providers
	db          *persistence.Database
	dbMetrics   *telemetry.DBMetrics
	closeLocker func() error
	bus         *event.InMemoryEventBus
	auditFile   *os.File

	shareholders  *appequity.ShareholderService
	previews      *appequity.PreviewService
	distributions *appequity.DistributionService
}

// newApp wires configuration, logging, telemetry, storage, locking and the
// equity services. On failure everything opened so far is released.
func newApp(ctx context.Context, opts *rootOptions) (a *app, err error) {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.poolCode != "" {
		cfg.Equity.PoolCode = opts.poolCode
	}
	level := cfg.Log.Level
	if opts.verbose {
		level = "debug"
	}

	baseLog, err := logger.NewFromSettings(level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a = &app{cfg: cfg, log: baseLog, closeLocker: func() error { return nil }}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
			a = nil
		}
	}()

	a.providers, err = telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		return a, err
	}
	a.log = telemetry.BridgeLogger(baseLog, a.providers, zapcore.InfoLevel).
		With(zap.String("pool_code", cfg.Equity.PoolCode))

	gormLog := logger.NewGormLogger(a.log, logger.MapGormLogLevel(level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithRejectionClassifier(persistence.IsUniqueViolation))
	a.db, err = persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return a, err
	}

	a.dbMetrics, err = telemetry.InstrumentDatabase(a.db.DB, a.providers,
		telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        a.db.Dialect(),
		},
		telemetry.DBMetricsConfig{
			Enabled:            cfg.Telemetry.Enabled,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		},
		a.log)
	if err != nil {
		return a, fmt.Errorf("failed to instrument database: %w", err)
	}

	if opts.migrate {
		if err = a.migrateUp(); err != nil {
			return a, err
		}
	}

	factory := lock.NewPoolLockerFactory(cfg.Equity, cfg.Redis,
		lock.WithLogger(a.log),
		lock.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	locker, closeLocker, err := factory.CreateLocker()
	if err != nil {
		return a, err
	}
	a.closeLocker = closeLocker

	registry, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		return a, err
	}
	rounding, err := registry.GetRoundingStrategy(cfg.Equity.RoundingStrategy)
	if err != nil {
		return a, err
	}

	pool, err := equity.NewCapacityPool(cfg.Equity.PoolCode, cfg.Equity.PoolCapacity, cfg.Equity.SharePool)
	if err != nil {
		return a, err
	}

	repo := persistence.NewGormShareholderRepository(a.db.DB)
	scope := persistence.NewGormEquityTransactionScope(a.db.DB, locker)

	a.shareholders = appequity.NewShareholderService(pool, rounding, repo, scope, a.log.Named("shareholders"))
	a.previews = appequity.NewPreviewService(pool, rounding, repo, a.log.Named("preview"))
	a.distributions = appequity.NewDistributionService(pool.Code, repo, a.log.Named("distribution"))

	if err = a.startEvents(ctx, opts.auditLog); err != nil {
		return a, err
	}
	a.shareholders.SetEventPublisher(a.bus)

	metrics, err := telemetry.NewEquityMetrics(telemetry.EquityMetricsConfig{
		Meter:  a.providers.Meter(telemetry.TracerName),
		Logger: a.log,
	})
	if err != nil {
		return a, err
	}
	a.shareholders.SetEquityMetrics(metrics)

	a.log.Debug("equity engine ready",
		zap.String("driver", cfg.Database.Driver),
		zap.String("rounding_strategy", rounding.Name()),
		zap.String("lock_backend", cfg.Equity.LockBackend),
	)
	return a, nil
}

// migrateUp applies the embedded schema. The migrator is not closed here
// because closing it would also close the shared connection pool.
func (a *app) migrateUp() error {
	sqlDB, err := a.db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, a.cfg.Database.Driver, a.log.Named("migrate"))
	if err != nil {
		return err
	}
	return m.Up()
}

func (a *app) startEvents(ctx context.Context, auditLog string) error {
	serializer := event.NewEventSerializer()
	event.RegisterEquityEvents(serializer)

	var writer io.Writer
	if auditLog != "" {
		f, err := os.OpenFile(auditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		a.auditFile = f
		writer = f
	}

	a.bus = event.NewInMemoryEventBus(a.log.Named("events"))
	a.bus.Subscribe(event.NewAuditHandler(serializer, writer, a.log))
	return a.bus.Start(ctx)
}

// Close releases resources in reverse order of acquisition
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Stop(ctx))
	}
	if a.auditFile != nil {
		errs = append(errs, a.auditFile.Close())
	}
	if a.closeLocker != nil {
		errs = append(errs, a.closeLocker())
	}
	if a.dbMetrics != nil {
		a.dbMetrics.Stop()
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.providers != nil {
		errs = append(errs, a.providers.Shutdown(ctx))
	}
	_ = logger.Sync(a.log)
	return errors.Join(errs...)
}
