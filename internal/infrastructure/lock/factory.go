package lock

import (
	"context"
	"fmt"
	"time"

	appequity "github.com/lending/equity/internal/application/equity"
	"github.com/lending/equity/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PoolLockerFactory creates pool lockers based on configuration
type PoolLockerFactory struct {
	equityConfig          config.EquityConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// PoolLockerFactoryOption is a functional option for configuring the factory
type PoolLockerFactoryOption func(*PoolLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) PoolLockerFactoryOption {
	return func(f *PoolLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-process locker
// when Redis is configured but unreachable. Default is false.
func WithInMemoryFallback(allow bool) PoolLockerFactoryOption {
	return func(f *PoolLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPoolLockerFactory creates a new factory
func NewPoolLockerFactory(equityCfg config.EquityConfig, redisCfg config.RedisConfig, opts ...PoolLockerFactoryOption) *PoolLockerFactory {
	f := &PoolLockerFactory{
		equityConfig: equityCfg,
		redisConfig:  redisCfg,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisLocker connects to Redis and returns a distributed locker
func (f *PoolLockerFactory) CreateRedisLocker() (*RedisPoolLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisPoolLocker(client,
		WithTTL(f.equityConfig.LockTTL),
		WithRetryInterval(f.equityConfig.LockRetryInterval),
		WithRedisLogger(f.logger.Named("pool_lock")),
	), nil
}

// CreateLocker returns the locker selected by equity.lock_backend.
// The close function releases any connection the locker holds.
func (f *PoolLockerFactory) CreateLocker() (appequity.PoolLocker, func() error, error) {
	noop := func() error { return nil }

	if f.equityConfig.LockBackend != config.LockBackendRedis {
		f.logger.Debug("using in-process pool locker")
		return NewMemoryPoolLocker(), noop, nil
	}

	locker, err := f.CreateRedisLocker()
	if err == nil {
		f.logger.Info("using Redis pool locker", zap.String("addr", f.redisConfig.Addr()))
		return locker, locker.Close, nil
	}

	if !f.allowInMemoryFallback {
		return nil, noop, fmt.Errorf("redis pool locker required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process pool locker. "+
		"Mutations from other processes will only be serialized by the database.",
		zap.Error(err),
	)
	return NewMemoryPoolLocker(), noop, nil
}
