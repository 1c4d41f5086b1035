package equity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShareholder(t *testing.T) {
	pool := testPool(t, 20_000_000)

	t.Run("derives percentage and records creation", func(t *testing.T) {
		s, err := NewShareholder(pool, ShareholderDetails{
			Name:           "Anura Silva",
			NationalID:     "941234567V",
			Contact:        "0771234567",
			Address:        "12 Temple Road, Kandy",
			InvestedAmount: decimal.NewFromInt(5_000_000),
		})
		require.NoError(t, err)

		assert.Equal(t, DefaultPoolCode, s.PoolCode)
		assert.Equal(t, "25", s.Percentage.String())
		assert.Equal(t, 1, s.GetVersion())
		require.Len(t, s.GetDomainEvents(), 1)
		evt, ok := s.GetDomainEvents()[0].(*ShareholderCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, EventTypeShareholderCreated, evt.EventType())
		assert.Equal(t, s.ID, evt.AggregateID())
		assert.Equal(t, DefaultPoolCode, evt.PoolCode())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewShareholder(pool, ShareholderDetails{Name: "Anura Silva", InvestedAmount: decimal.Zero})
		assert.Error(t, err)
	})

	t.Run("rejects fractions of a cent", func(t *testing.T) {
		_, err := NewShareholder(pool, ShareholderDetails{Name: "Anura Silva", InvestedAmount: decimal.RequireFromString("100.005")})
		assert.Error(t, err)
	})

	t.Run("accepts trailing zeros beyond cents", func(t *testing.T) {
		s, err := NewShareholder(pool, ShareholderDetails{Name: "Anura Silva", InvestedAmount: decimal.RequireFromString("100.500")})
		require.NoError(t, err)
		assert.True(t, s.InvestedAmount.Equal(decimal.RequireFromString("100.5")))
	})
}

func TestShareholder_Revise(t *testing.T) {
	pool := testPool(t, 20_000_000)
	s := holder(t, pool, "Anura Silva", "941234567V", "0771234567", 2_000_000)
	created := s.UpdatedAt

	details := s.Details()
	details.InvestedAmount = decimal.NewFromInt(3_000_000)
	require.NoError(t, s.Revise(pool, details))

	assert.Equal(t, "15", s.Percentage.String())
	assert.Equal(t, 2, s.GetVersion())
	assert.False(t, s.UpdatedAt.Before(created))
	require.Len(t, s.GetDomainEvents(), 1)
	evt := s.GetDomainEvents()[0].(*ShareholderUpdatedEvent)
	assert.True(t, evt.PreviousAmount.Equal(decimal.NewFromInt(2_000_000)))
	assert.True(t, evt.InvestedAmount.Equal(decimal.NewFromInt(3_000_000)))

	t.Run("keeps stored values when amount is invalid", func(t *testing.T) {
		bad := s.Details()
		bad.InvestedAmount = decimal.NewFromInt(-1)
		require.Error(t, s.Revise(pool, bad))
		assert.True(t, s.InvestedAmount.Equal(decimal.NewFromInt(3_000_000)))
	})
}

func TestShareholder_MarkDeleted(t *testing.T) {
	pool := testPool(t, 20_000_000)
	s := holder(t, pool, "Anura Silva", "941234567V", "0771234567", 2_000_000)
	s.MarkDeleted()
	require.Len(t, s.GetDomainEvents(), 1)
	evt := s.GetDomainEvents()[0].(*ShareholderDeletedEvent)
	assert.True(t, evt.ReleasedAmount.Equal(decimal.NewFromInt(2_000_000)))
}
