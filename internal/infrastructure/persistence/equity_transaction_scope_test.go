package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	appequity "github.com/lending/equity/internal/application/equity"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLocker records Acquire/release calls
type recordingLocker struct {
	mu       sync.Mutex
	calls    []string
	acquired int
	released int
	err      error
}

func (l *recordingLocker) Acquire(ctx context.Context, poolCode string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, poolCode)
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
	}, nil
}

func TestGormEquityTransactionScope_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits and releases lock", func(t *testing.T) {
		db, pool := setupEquityTestDB(t)
		locker := &recordingLocker{}
		scope := NewGormEquityTransactionScope(db, locker)

		s := newTestShareholder(t, pool, "Nimal Perera", "852345678V", "0771234567", 1_000_000)
		err := scope.Execute(ctx, pool.Code, func(repos appequity.TransactionalRepositories) error {
			require.NoError(t, repos.Pools().LockPool(ctx, pool.Code))
			return repos.Shareholders().Insert(ctx, s)
		})
		require.NoError(t, err)

		assert.Equal(t, []string{pool.Code}, locker.calls)
		assert.Equal(t, 1, locker.released)

		_, err = NewGormShareholderRepository(db).FindByID(ctx, s.ID)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error and still releases", func(t *testing.T) {
		db, pool := setupEquityTestDB(t)
		locker := &recordingLocker{}
		scope := NewGormEquityTransactionScope(db, locker)
		boom := errors.New("verification failed")

		s := newTestShareholder(t, pool, "Nimal Perera", "852345678V", "0771234567", 1_000_000)
		err := scope.Execute(ctx, pool.Code, func(repos appequity.TransactionalRepositories) error {
			require.NoError(t, repos.Shareholders().Insert(ctx, s))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, locker.released)

		_, err = NewGormShareholderRepository(db).FindByID(ctx, s.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("lock failure skips the transaction", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		locker := &recordingLocker{err: shared.ErrLockUnavailable}
		scope := NewGormEquityTransactionScope(db.DB, locker)

		called := false
		err := scope.Execute(ctx, "default", func(appequity.TransactionalRepositories) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, shared.ErrLockUnavailable)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres transaction shape", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		scope := NewGormEquityTransactionScope(db.DB, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "capacity_pools" WHERE code = \$1 LIMIT \$2 FOR UPDATE`).
			WithArgs("default", 1).
			WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("default"))
		mock.ExpectCommit()

		err := scope.Execute(ctx, "default", func(repos appequity.TransactionalRepositories) error {
			return repos.Pools().LockPool(ctx, "default")
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
