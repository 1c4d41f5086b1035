package rounding

import (
	"context"

	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// HalfUpRoundingStrategy rounds every quota half-up, then takes shares back
// from the holdings that were rounded up with the smallest remainders until
// the total fits the share pool.
type HalfUpRoundingStrategy struct {
	strategy.BaseStrategy
}

// NewHalfUpRoundingStrategy creates a new half-up rounding strategy
func NewHalfUpRoundingStrategy() *HalfUpRoundingStrategy {
	return &HalfUpRoundingStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			strategy.RoundingHalfUp,
			strategy.StrategyTypeRounding,
			"Round each stake half-up, reconciling any overshoot by smallest remainder",
		),
	}
}

// ShareCount rounds the quota of a single stake half-up, capped at the share pool
func (s *HalfUpRoundingStrategy) ShareCount(percentage decimal.Decimal, totalShares int64) int64 {
	if !percentage.IsPositive() || totalShares <= 0 {
		return 0
	}
	n := strategy.Quota(percentage, totalShares).Round(0).IntPart()
	if n > totalShares {
		return totalShares
	}
	return n
}

// Apportion assigns half-up counts and reconciles them against the share pool
func (s *HalfUpRoundingStrategy) Apportion(ctx context.Context, totalShares int64, holdings []strategy.ShareHolding) (strategy.ApportionResult, error) {
	entries, _, err := buildQuotas(totalShares, holdings)
	if err != nil {
		return strategy.ApportionResult{}, err
	}

	var assigned, floors int64
	for i := range entries {
		entries[i].count = entries[i].quota.Round(0).IntPart()
		assigned += entries[i].count
		floors += entries[i].floor
	}
	if floors > totalShares {
		return strategy.ApportionResult{}, overAllocated()
	}

	if assigned > totalShares {
		byRemainder(entries, false)
		for i := range entries {
			if assigned <= totalShares {
				break
			}
			if entries[i].count > entries[i].floor {
				entries[i].count--
				assigned--
			}
		}
	}

	return toResult(entries), nil
}
