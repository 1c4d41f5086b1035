package equity

import (
	"strings"

	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultPoolCode is the code of the single pool used by a standard deployment
const DefaultPoolCode = "default"

// AmountScale is the number of decimal places money amounts are stored with
const AmountScale = 2

// percentageScale is the number of decimal places percentages are stored with.
// Eight places keep the stored value within 1e-6 of the exact ratio.
const percentageScale = 8

var hundred = decimal.NewFromInt(100)

// PercentageEpsilon bounds the difference between a stored percentage and the
// exact ratio of invested amount to pool capacity.
var PercentageEpsilon = decimal.New(1, -6)

// CapacityPool is the fixed capital ceiling and share count partitioned
// among shareholders. It is configuration, not a mutable entity.
type CapacityPool struct {
	Code          string
	TotalCapacity decimal.Decimal
	TotalShares   int64
}

// NewCapacityPool creates a capacity pool after checking its parameters
func NewCapacityPool(code string, totalCapacity decimal.Decimal, totalShares int64) (CapacityPool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return CapacityPool{}, shared.NewDomainError("INVALID_POOL_CODE", "Pool code cannot be empty")
	}
	if len(code) > 50 {
		return CapacityPool{}, shared.NewDomainError("INVALID_POOL_CODE", "Pool code cannot exceed 50 characters")
	}
	if !totalCapacity.IsPositive() {
		return CapacityPool{}, shared.NewDomainError("INVALID_POOL_CAPACITY", "Pool capacity must be positive")
	}
	if !totalCapacity.Equal(totalCapacity.Round(AmountScale)) {
		return CapacityPool{}, shared.NewDomainError("INVALID_POOL_CAPACITY", "Pool capacity cannot have more than 2 decimal places")
	}
	if totalShares <= 0 {
		return CapacityPool{}, shared.NewDomainError("INVALID_SHARE_POOL", "Share pool must be positive")
	}
	return CapacityPool{
		Code:          code,
		TotalCapacity: totalCapacity,
		TotalShares:   totalShares,
	}, nil
}

// PercentageOf returns amount as a percentage of the pool capacity
func (p CapacityPool) PercentageOf(amount decimal.Decimal) decimal.Decimal {
	if p.TotalCapacity.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(p.TotalCapacity).Round(percentageScale)
}
