package equity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCapacityLedger_Snapshot(t *testing.T) {
	pool := testPool(t, 20_000_000)
	ledger := NewCapacityLedger(pool)
	a := holder(t, pool, "Anura Silva", "941234567V", "0771234567", 2_000_000)
	b := holder(t, pool, "Bimal Perera", "199012345678", "0712345678", 6_000_000)
	c := holder(t, pool, "Chamari Fernando", "881234567X", "0751234567", 4_000_000)
	holdings := []Shareholder{a, b, c}

	t.Run("sums every holding", func(t *testing.T) {
		snap := ledger.Snapshot(holdings, nil)
		assert.True(t, snap.TotalInvested.Equal(decimal.NewFromInt(12_000_000)))
		assert.True(t, snap.RemainingCapacity.Equal(decimal.NewFromInt(8_000_000)))
		assert.Equal(t, 3, snap.HolderCount)
		assert.False(t, snap.IsFull())
	})

	t.Run("excludes the edited holding", func(t *testing.T) {
		snap := ledger.Snapshot(holdings, &a.ID)
		othersTotal := b.InvestedAmount.Add(c.InvestedAmount)
		assert.True(t, snap.RemainingCapacity.Equal(pool.TotalCapacity.Sub(othersTotal)))
		assert.Equal(t, 2, snap.HolderCount)
	})

	t.Run("repeated snapshots are identical", func(t *testing.T) {
		assert.Equal(t, ledger.Snapshot(holdings, nil), ledger.Snapshot(holdings, nil))
	})

	t.Run("empty pool has full capacity", func(t *testing.T) {
		snap := ledger.Snapshot(nil, nil)
		assert.True(t, snap.TotalInvested.IsZero())
		assert.True(t, snap.RemainingCapacity.Equal(pool.TotalCapacity))
	})

	t.Run("full pool reports full", func(t *testing.T) {
		d := holder(t, pool, "Dinesh Kumar", "901234567V", "0761234567", 8_000_000)
		assert.True(t, ledger.Snapshot(append(holdings, d), nil).IsFull())
	})
}
