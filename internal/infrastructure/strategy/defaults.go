package strategy

import (
	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/lending/equity/internal/infrastructure/strategy/rounding"
)

// NewRegistryWithDefaults creates a registry holding the built-in rounding
// strategies, with half-up as the default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	halfUp := rounding.NewHalfUpRoundingStrategy()
	if err := r.RegisterRoundingStrategy(halfUp); err != nil {
		return nil, err
	}

	largestRemainder := rounding.NewLargestRemainderRoundingStrategy()
	if err := r.RegisterRoundingStrategy(largestRemainder); err != nil {
		return nil, err
	}

	if err := r.SetDefault(strategy.StrategyTypeRounding, halfUp.Name()); err != nil {
		return nil, err
	}

	return r, nil
}
