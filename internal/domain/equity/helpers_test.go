package equity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// halfUpRounding rounds each stake on its own; enough for domain tests
type halfUpRounding struct {
	strategy.BaseStrategy
}

func newHalfUpRounding() halfUpRounding {
	return halfUpRounding{BaseStrategy: strategy.NewBaseStrategy(strategy.RoundingHalfUp, strategy.StrategyTypeRounding, "test")}
}

func (halfUpRounding) ShareCount(percentage decimal.Decimal, totalShares int64) int64 {
	return strategy.Quota(percentage, totalShares).Round(0).IntPart()
}

func (r halfUpRounding) Apportion(_ context.Context, totalShares int64, holdings []strategy.ShareHolding) (strategy.ApportionResult, error) {
	result := strategy.ApportionResult{Counts: make(map[uuid.UUID]int64, len(holdings))}
	for _, h := range holdings {
		n := r.ShareCount(h.Percentage, totalShares)
		result.Counts[h.ID] = n
		result.Total += n
	}
	return result, nil
}

// MockShareholderReader is a mock implementation of ShareholderReader
type MockShareholderReader struct {
	mock.Mock
}

func (m *MockShareholderReader) List(ctx context.Context, poolCode string) ([]Shareholder, error) {
	args := m.Called(ctx, poolCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Shareholder), args.Error(1)
}

func (m *MockShareholderReader) FindByNationalID(ctx context.Context, poolCode, nationalID string, excludeID *uuid.UUID) (*Shareholder, error) {
	args := m.Called(ctx, poolCode, nationalID, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Shareholder), args.Error(1)
}

func (m *MockShareholderReader) FindByContact(ctx context.Context, poolCode, contact string, excludeID *uuid.UUID) (*Shareholder, error) {
	args := m.Called(ctx, poolCode, contact, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Shareholder), args.Error(1)
}

func testPool(t *testing.T, capacity int64) CapacityPool {
	t.Helper()
	pool, err := NewCapacityPool(DefaultPoolCode, decimal.NewFromInt(capacity), 100)
	require.NoError(t, err)
	return pool
}

func holder(t *testing.T, pool CapacityPool, name, nationalID, contact string, amount int64) Shareholder {
	t.Helper()
	s, err := NewShareholder(pool, ShareholderDetails{
		Name:           name,
		NationalID:     nationalID,
		Contact:        contact,
		Address:        "12 Temple Road, Kandy",
		InvestedAmount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	s.ClearDomainEvents()
	return *s
}
