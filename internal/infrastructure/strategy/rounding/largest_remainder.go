package rounding

import (
	"context"

	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// LargestRemainderRoundingStrategy implements Hamilton apportionment: every
// stake receives the floor of its quota and the shares still owed to the
// pool go to the largest remainders.
type LargestRemainderRoundingStrategy struct {
	strategy.BaseStrategy
}

// NewLargestRemainderRoundingStrategy creates a new largest remainder strategy
func NewLargestRemainderRoundingStrategy() *LargestRemainderRoundingStrategy {
	return &LargestRemainderRoundingStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			strategy.RoundingLargestRemainder,
			strategy.StrategyTypeRounding,
			"Floor each stake and hand remaining shares to the largest remainders",
		),
	}
}

// ShareCount rounds a lone stake half-up, which is what apportionment gives
// a pool holding a single stake.
func (s *LargestRemainderRoundingStrategy) ShareCount(percentage decimal.Decimal, totalShares int64) int64 {
	if !percentage.IsPositive() || totalShares <= 0 {
		return 0
	}
	n := strategy.Quota(percentage, totalShares).Round(0).IntPart()
	if n > totalShares {
		return totalShares
	}
	return n
}

// Apportion floors every quota, then distributes round(Σquota) − Σfloor
// extra shares by descending remainder.
func (s *LargestRemainderRoundingStrategy) Apportion(ctx context.Context, totalShares int64, holdings []strategy.ShareHolding) (strategy.ApportionResult, error) {
	entries, sum, err := buildQuotas(totalShares, holdings)
	if err != nil {
		return strategy.ApportionResult{}, err
	}

	var floors int64
	for i := range entries {
		entries[i].count = entries[i].floor
		floors += entries[i].floor
	}
	if floors > totalShares {
		return strategy.ApportionResult{}, overAllocated()
	}

	seats := sum.Round(0).IntPart()
	if seats > totalShares {
		seats = totalShares
	}
	extra := seats - floors

	byRemainder(entries, true)
	for i := 0; i < len(entries) && extra > 0; i++ {
		if entries[i].remainder.IsPositive() {
			entries[i].count++
			extra--
		}
	}

	return toResult(entries), nil
}
