package migration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/infrastructure/config"
	"github.com/lending/equity/internal/infrastructure/persistence"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestMigrator_SQLiteUpDown(t *testing.T) {
	db := openSQLite(t)

	m, err := New(db, config.DriverSQLite, zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up())
	assert.True(t, tableExists(t, db, "capacity_pools"))
	assert.True(t, tableExists(t, db, "shareholders"))

	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(20260301090100), version)

	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, db, "shareholders"))
	assert.True(t, tableExists(t, db, "capacity_pools"))

	require.NoError(t, m.Down())
	assert.False(t, tableExists(t, db, "capacity_pools"))
}

func TestMigrator_SchemaServesRepositories(t *testing.T) {
	db := openSQLite(t)
	m, err := New(db, config.DriverSQLite, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	gdb, err := gorm.Open(sqlite.Dialector{Conn: db}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	ctx := context.Background()
	pool, err := equity.NewCapacityPool(equity.DefaultPoolCode, decimal.NewFromInt(20_000_000), 100)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormPoolRepository(gdb).EnsurePool(ctx, pool))

	repo := persistence.NewGormShareholderRepository(gdb)
	s, err := equity.NewShareholder(pool, equity.ShareholderDetails{
		Name:           "Nimal Perera",
		NationalID:     "941234567V",
		Contact:        "0771234567",
		Address:        "45 Galle Road, Colombo",
		InvestedAmount: decimal.NewFromInt(5_000_000),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, s))

	dup, err := equity.NewShareholder(pool, equity.ShareholderDetails{
		Name:           "Kamal Perera",
		NationalID:     "941234567v",
		Contact:        "0719876543",
		Address:        "12 Temple Road, Kandy",
		InvestedAmount: decimal.NewFromInt(1_000_000),
	})
	require.NoError(t, err)
	err = repo.Insert(ctx, dup)
	assert.ErrorIs(t, err, equity.ErrDuplicateConstraint)

	found, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nimal Perera", found.Name)
	assert.True(t, found.InvestedAmount.Equal(decimal.NewFromInt(5_000_000)))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.Error(t, err)
}
