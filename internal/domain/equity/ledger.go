package equity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerSnapshot is the capacity position of a pool at one point in time
type LedgerSnapshot struct {
	Capacity          decimal.Decimal
	TotalInvested     decimal.Decimal
	RemainingCapacity decimal.Decimal
	HolderCount       int
}

// IsFull reports whether no capacity is left
func (s LedgerSnapshot) IsFull() bool {
	return !s.RemainingCapacity.IsPositive()
}

// CapacityLedger derives totals from a set of holdings.
// It keeps no state; every snapshot is recomputed from the records passed in.
type CapacityLedger struct {
	pool CapacityPool
}

// NewCapacityLedger creates a ledger for a pool
func NewCapacityLedger(pool CapacityPool) CapacityLedger {
	return CapacityLedger{pool: pool}
}

// Snapshot sums the invested amounts of the holdings, skipping excludeID when
// set so that a shareholder being edited does not count against itself.
func (l CapacityLedger) Snapshot(holdings []Shareholder, excludeID *uuid.UUID) LedgerSnapshot {
	total := decimal.Zero
	count := 0
	for i := range holdings {
		if excludeID != nil && holdings[i].ID == *excludeID {
			continue
		}
		total = total.Add(holdings[i].InvestedAmount)
		count++
	}
	return LedgerSnapshot{
		Capacity:          l.pool.TotalCapacity,
		TotalInvested:     total,
		RemainingCapacity: l.pool.TotalCapacity.Sub(total),
		HolderCount:       count,
	}
}
