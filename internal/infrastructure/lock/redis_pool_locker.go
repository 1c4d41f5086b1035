package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "equity:pool-lock:"

// releaseScript deletes the lock key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPoolLocker serializes pool mutations across processes with
// SET NX PX. Each acquisition stores a random token that release checks, so
// a holder whose TTL expired cannot delete a successor's lock.
type RedisPoolLocker struct {
	client        *redis.Client
	keyPrefix     string
	ttl           time.Duration
	retryInterval time.Duration
	logger        *zap.Logger
}

// RedisPoolLockerOption is a functional option for configuring the locker
type RedisPoolLockerOption func(*RedisPoolLocker)

// WithKeyPrefix overrides the key prefix
func WithKeyPrefix(prefix string) RedisPoolLockerOption {
	return func(l *RedisPoolLocker) {
		l.keyPrefix = prefix
	}
}

// WithTTL sets the lock expiry
func WithTTL(ttl time.Duration) RedisPoolLockerOption {
	return func(l *RedisPoolLocker) {
		l.ttl = ttl
	}
}

// WithRetryInterval sets the wait between acquisition attempts
func WithRetryInterval(interval time.Duration) RedisPoolLockerOption {
	return func(l *RedisPoolLocker) {
		l.retryInterval = interval
	}
}

// WithRedisLogger sets the logger used for release failures
func WithRedisLogger(logger *zap.Logger) RedisPoolLockerOption {
	return func(l *RedisPoolLocker) {
		l.logger = logger
	}
}

// NewRedisPoolLocker creates a locker on an existing client
func NewRedisPoolLocker(client *redis.Client, opts ...RedisPoolLockerOption) *RedisPoolLocker {
	l := &RedisPoolLocker{
		client:        client,
		keyPrefix:     defaultKeyPrefix,
		ttl:           10 * time.Second,
		retryInterval: 50 * time.Millisecond,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire retries SET NX until it wins or ctx is done
func (l *RedisPoolLocker) Acquire(ctx context.Context, poolCode string) (func(), error) {
	key := l.keyPrefix + poolCode
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: pool %q: %v", shared.ErrLockUnavailable, poolCode, ctxErr)
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: pool %q: %v", shared.ErrLockUnavailable, poolCode, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisPoolLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled; release regardless.
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl)
			defer cancel()

			n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
			switch {
			case err != nil && !errors.Is(err, redis.Nil):
				l.logger.Error("failed to release pool lock", zap.String("key", key), zap.Error(err))
			case err == nil && n == 0:
				l.logger.Warn("pool lock expired before release", zap.String("key", key), zap.Duration("ttl", l.ttl))
			}
		})
	}
}

// Close closes the underlying client
func (l *RedisPoolLocker) Close() error {
	return l.client.Close()
}
