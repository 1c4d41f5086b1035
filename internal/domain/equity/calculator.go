package equity

import (
	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// AllocationPreview is the derived position a candidate amount would take
type AllocationPreview struct {
	Amount            decimal.Decimal
	Percentage        decimal.Decimal
	ShareCount        int64
	RemainingCapacity decimal.Decimal
	IsValid           bool
}

// AllocationCalculator maps an amount to its percentage and share count.
// It is side-effect free.
type AllocationCalculator struct {
	pool     CapacityPool
	rounding strategy.ShareRoundingStrategy
}

// NewAllocationCalculator creates a calculator for a pool and rounding strategy
func NewAllocationCalculator(pool CapacityPool, rounding strategy.ShareRoundingStrategy) AllocationCalculator {
	return AllocationCalculator{pool: pool, rounding: rounding}
}

// Pool returns the pool the calculator works against
func (c AllocationCalculator) Pool() CapacityPool {
	return c.pool
}

// Rounding returns the share rounding strategy
func (c AllocationCalculator) Rounding() strategy.ShareRoundingStrategy {
	return c.rounding
}

// Preview derives percentage and share count for amount against snapshot
func (c AllocationCalculator) Preview(amount decimal.Decimal, snapshot LedgerSnapshot) AllocationPreview {
	percentage := c.pool.PercentageOf(amount)
	shares := int64(0)
	if amount.IsPositive() {
		shares = c.rounding.ShareCount(percentage, c.pool.TotalShares)
	}
	return AllocationPreview{
		Amount:            amount,
		Percentage:        percentage,
		ShareCount:        shares,
		RemainingCapacity: snapshot.RemainingCapacity,
		IsValid:           amount.IsPositive() && amount.LessThanOrEqual(snapshot.RemainingCapacity),
	}
}
