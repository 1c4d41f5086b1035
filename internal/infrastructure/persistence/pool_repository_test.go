package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormPoolRepository_LockPool_Postgres(t *testing.T) {
	t.Run("selects pool row for update", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormPoolRepository(db.DB)

		mock.ExpectQuery(`SELECT \* FROM "capacity_pools" WHERE code = \$1 LIMIT \$2 FOR UPDATE`).
			WithArgs("default", 1).
			WillReturnRows(sqlmock.NewRows([]string{"code", "total_capacity", "total_shares"}).
				AddRow("default", "100000000.00", 1000000))

		require.NoError(t, repo.LockPool(context.Background(), "default"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing pool is not found", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormPoolRepository(db.DB)

		mock.ExpectQuery(`SELECT \* FROM "capacity_pools" WHERE code = \$1 LIMIT \$2 FOR UPDATE`).
			WithArgs("ghost", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		err := repo.LockPool(context.Background(), "ghost")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormPoolRepository_SQLite(t *testing.T) {
	db, pool := setupEquityTestDB(t)
	repo := NewGormPoolRepository(db)
	ctx := context.Background()

	t.Run("lock pool reads the row without locking clause", func(t *testing.T) {
		assert.NoError(t, repo.LockPool(ctx, pool.Code))
		assert.True(t, errors.Is(repo.LockPool(ctx, "absent"), shared.ErrNotFound))
	})

	t.Run("ensure pool refreshes parameters", func(t *testing.T) {
		resized, err := equity.NewCapacityPool(pool.Code, decimal.NewFromInt(150_000_000), 1_500_000)
		require.NoError(t, err)
		require.NoError(t, repo.EnsurePool(ctx, resized))

		got, err := repo.FindByCode(ctx, pool.Code)
		require.NoError(t, err)
		assert.True(t, got.TotalCapacity.Equal(decimal.NewFromInt(150_000_000)))
		assert.Equal(t, int64(1_500_000), got.TotalShares)
	})

	t.Run("ensure pool creates new rows", func(t *testing.T) {
		north, err := equity.NewCapacityPool("north", decimal.NewFromInt(10_000_000), 100_000)
		require.NoError(t, err)
		require.NoError(t, repo.EnsurePool(ctx, north))

		got, err := repo.FindByCode(ctx, "north")
		require.NoError(t, err)
		assert.Equal(t, int64(100_000), got.TotalShares)
	})
}
