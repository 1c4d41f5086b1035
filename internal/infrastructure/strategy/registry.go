package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lending/equity/internal/domain/shared"
	"github.com/lending/equity/internal/domain/shared/strategy"
)

// StrategyRegistry manages strategy registrations
type StrategyRegistry struct {
	mu                 sync.RWMutex
	roundingStrategies map[string]strategy.ShareRoundingStrategy
	defaults           map[strategy.StrategyType]string
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		roundingStrategies: make(map[string]strategy.ShareRoundingStrategy),
		defaults:           make(map[strategy.StrategyType]string),
	}
}

// RegisterRoundingStrategy registers a share rounding strategy
func (r *StrategyRegistry) RegisterRoundingStrategy(s strategy.ShareRoundingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.roundingStrategies[name]; exists {
		return fmt.Errorf("%w: rounding strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.roundingStrategies[name] = s
	return nil
}

// GetRoundingStrategy returns a rounding strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetRoundingStrategy(name string) (strategy.ShareRoundingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaults[strategy.StrategyTypeRounding]
		if name == "" {
			return nil, fmt.Errorf("%w: no default rounding strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.roundingStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: rounding strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// ListRoundingStrategies returns all registered rounding strategy names
func (r *StrategyRegistry) ListRoundingStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.roundingStrategies))
	for name := range r.roundingStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDefault sets the default strategy for a strategy type
func (r *StrategyRegistry) SetDefault(strategyType strategy.StrategyType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRegisteredLocked(strategyType, name) {
		return fmt.Errorf("%w: strategy '%s' of type '%s' not found", shared.ErrNotFound, name, strategyType)
	}

	r.defaults[strategyType] = name
	return nil
}

// GetDefault returns the default strategy name for a strategy type
func (r *StrategyRegistry) GetDefault(strategyType strategy.StrategyType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType]
}

func (r *StrategyRegistry) isRegisteredLocked(strategyType strategy.StrategyType, name string) bool {
	switch strategyType {
	case strategy.StrategyTypeRounding:
		_, ok := r.roundingStrategies[name]
		return ok
	default:
		return false
	}
}
