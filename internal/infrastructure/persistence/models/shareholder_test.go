package models

import (
	"testing"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareholderModel_RoundTrip(t *testing.T) {
	pool, err := equity.NewCapacityPool("default", decimal.NewFromInt(100_000_000), 1_000_000)
	require.NoError(t, err)

	s, err := equity.NewShareholder(pool, equity.ShareholderDetails{
		Name:           "Nimal Perera",
		NationalID:     "852345678V",
		Contact:        "0771234567",
		Address:        "12 Temple Road, Kandy",
		InvestedAmount: decimal.NewFromInt(5_000_000),
	})
	require.NoError(t, err)
	s.SetShareCount(50_000)

	m := ShareholderModelFromDomain(s)
	assert.Equal(t, "shareholders", m.TableName())
	assert.Equal(t, s.ID, m.ID)
	assert.Equal(t, 1, m.Version)

	back := m.ToDomain()
	assert.Equal(t, s.ID, back.ID)
	assert.Equal(t, s.CreatedAt, back.CreatedAt)
	assert.Equal(t, s.PoolCode, back.PoolCode)
	assert.Equal(t, s.Name, back.Name)
	assert.Equal(t, s.NationalID, back.NationalID)
	assert.Equal(t, s.Contact, back.Contact)
	assert.Equal(t, s.Address, back.Address)
	assert.True(t, s.InvestedAmount.Equal(back.InvestedAmount))
	assert.True(t, s.Percentage.Equal(back.Percentage))
	assert.Equal(t, int64(50_000), back.ShareCount)
	assert.Empty(t, back.GetDomainEvents())
}

func TestCapacityPoolModel(t *testing.T) {
	pool, err := equity.NewCapacityPool("north", decimal.NewFromInt(25_000_000), 250_000)
	require.NoError(t, err)

	m := CapacityPoolModelFromDomain(pool)
	assert.Equal(t, "capacity_pools", m.TableName())
	assert.Equal(t, pool, m.ToDomain())
}
