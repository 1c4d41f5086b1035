package persistence

import (
	"testing"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupEquityTestDB opens an in-memory SQLite database with the equity schema
// and a seeded pool of 100M capacity and 1M shares.
func setupEquityTestDB(t *testing.T) (*gorm.DB, equity.CapacityPool) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))

	pool, err := equity.NewCapacityPool(equity.DefaultPoolCode, decimal.NewFromInt(100_000_000), 1_000_000)
	require.NoError(t, err)
	require.NoError(t, db.Create(models.CapacityPoolModelFromDomain(pool)).Error)

	return db, pool
}

func newTestShareholder(t *testing.T, pool equity.CapacityPool, name, nationalID, contact string, amount int64) *equity.Shareholder {
	t.Helper()
	s, err := equity.NewShareholder(pool, equity.ShareholderDetails{
		Name:           name,
		NationalID:     nationalID,
		Contact:        contact,
		Address:        "45 Galle Road, Colombo 03",
		InvestedAmount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return s
}
