package equity

import (
	"context"

	"github.com/lending/equity/internal/domain/equity"
)

// TransactionScope serializes mutations of one capacity pool.
// Execute holds the pool lock and a database transaction for the whole
// callback; if the callback returns an error the transaction is rolled back,
// otherwise it is committed before the lock is released.
type TransactionScope interface {
	Execute(ctx context.Context, poolCode string, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to the scope's transaction.
// Inside Execute, only these repositories may be used.
type TransactionalRepositories interface {
	Shareholders() equity.ShareholderRepository
	Pools() equity.PoolRepository
}

// PoolLocker grants exclusive access to a pool across goroutines or processes.
// The returned release function must be called exactly once.
type PoolLocker interface {
	Acquire(ctx context.Context, poolCode string) (release func(), err error)
}
