package strategy

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rounding strategy names
const (
	RoundingHalfUp           = "half_up"
	RoundingLargestRemainder = "largest_remainder"
)

// ShareHolding is one holder's stake in the pool
type ShareHolding struct {
	ID         uuid.UUID
	Percentage decimal.Decimal
}

// ApportionResult holds the share count assigned to each holding
type ApportionResult struct {
	Counts map[uuid.UUID]int64
	Total  int64
}

// ShareRoundingStrategy converts percentage stakes into whole share counts
type ShareRoundingStrategy interface {
	Strategy
	// ShareCount returns the share count for a single stake considered on its own.
	// Used for previews, where the rest of the pool is not apportioned.
	ShareCount(percentage decimal.Decimal, totalShares int64) int64
	// Apportion assigns a share count to every holding of a pool.
	// The returned total never exceeds totalShares.
	Apportion(ctx context.Context, totalShares int64, holdings []ShareHolding) (ApportionResult, error)
}

// Quota returns the fractional share entitlement for a percentage stake
func Quota(percentage decimal.Decimal, totalShares int64) decimal.Decimal {
	return percentage.Mul(decimal.NewFromInt(totalShares)).Div(decimal.NewFromInt(100))
}
