package persistence

import (
	"context"
	"fmt"

	appequity "github.com/lending/equity/internal/application/equity"
	"github.com/lending/equity/internal/domain/equity"
	"gorm.io/gorm"
)

// GormEquityTransactionScope implements appequity.TransactionScope.
// It takes the pool lock from the PoolLocker before opening a GORM
// transaction and releases it after commit or rollback.
type GormEquityTransactionScope struct {
	db     *gorm.DB
	locker appequity.PoolLocker
}

// NewGormEquityTransactionScope creates a new GormEquityTransactionScope.
// A nil locker leaves serialization to the database alone.
func NewGormEquityTransactionScope(db *gorm.DB, locker appequity.PoolLocker) *GormEquityTransactionScope {
	return &GormEquityTransactionScope{db: db, locker: locker}
}

// Execute runs fn inside a transaction while holding the pool lock
func (s *GormEquityTransactionScope) Execute(ctx context.Context, poolCode string, fn func(repos appequity.TransactionalRepositories) error) error {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, poolCode)
		if err != nil {
			return fmt.Errorf("acquire lock for pool %q: %w", poolCode, err)
		}
		defer release()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormEquityRepositories{tx: tx})
	})
}

// gormEquityRepositories provides repositories scoped to the current transaction
type gormEquityRepositories struct {
	tx *gorm.DB
}

// Shareholders returns the shareholder repository scoped to the current transaction
func (r *gormEquityRepositories) Shareholders() equity.ShareholderRepository {
	return NewGormShareholderRepository(r.tx)
}

// Pools returns the pool repository scoped to the current transaction
func (r *gormEquityRepositories) Pools() equity.PoolRepository {
	return NewGormPoolRepository(r.tx)
}

var _ appequity.TransactionScope = (*GormEquityTransactionScope)(nil)

var _ appequity.TransactionalRepositories = (*gormEquityRepositories)(nil)
