package strategy

import (
	"errors"
	"testing"

	"github.com/lending/equity/internal/domain/shared"
	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/lending/equity/internal/infrastructure/strategy/rounding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyRegistry_RegisterRoundingStrategy(t *testing.T) {
	r := NewStrategyRegistry()

	require.NoError(t, r.RegisterRoundingStrategy(rounding.NewHalfUpRoundingStrategy()))

	err := r.RegisterRoundingStrategy(rounding.NewHalfUpRoundingStrategy())
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestStrategyRegistry_GetRoundingStrategy(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterRoundingStrategy(rounding.NewLargestRemainderRoundingStrategy()))

	s, err := r.GetRoundingStrategy(strategy.RoundingLargestRemainder)
	require.NoError(t, err)
	assert.Equal(t, strategy.RoundingLargestRemainder, s.Name())

	_, err = r.GetRoundingStrategy("banker")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = r.GetRoundingStrategy("")
	assert.True(t, errors.Is(err, shared.ErrNotFound), "no default set yet")
}

func TestStrategyRegistry_SetDefault(t *testing.T) {
	r := NewStrategyRegistry()

	err := r.SetDefault(strategy.StrategyTypeRounding, strategy.RoundingHalfUp)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, r.RegisterRoundingStrategy(rounding.NewHalfUpRoundingStrategy()))
	require.NoError(t, r.SetDefault(strategy.StrategyTypeRounding, strategy.RoundingHalfUp))
	assert.Equal(t, strategy.RoundingHalfUp, r.GetDefault(strategy.StrategyTypeRounding))
}

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, []string{strategy.RoundingHalfUp, strategy.RoundingLargestRemainder}, r.ListRoundingStrategies())

	s, err := r.GetRoundingStrategy("")
	require.NoError(t, err)
	assert.Equal(t, strategy.RoundingHalfUp, s.Name())
}
