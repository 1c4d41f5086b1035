package equity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributionService_FullyAllocatedPool(t *testing.T) {
	h := newHarness(t, 20_000_000, 100)
	quarter := h.create(t, input(0, "5000000"))
	h.create(t, input(1, "7000000"))
	h.create(t, input(2, "8000000"))

	dist, err := h.profits.Distribute(context.Background(), dec("1000000"))
	require.NoError(t, err)
	assert.Equal(t, equity.DefaultPoolCode, dist.PoolCode)
	require.Len(t, dist.Lines, 3)

	sum := decimal.Zero
	for _, line := range dist.Lines {
		sum = sum.Add(line.ProfitShare)
		if line.ShareholderID == quarter.ID {
			assert.True(t, line.ProfitShare.Equal(dec("250000")), "profit share = %s", line.ProfitShare)
		}
	}
	assert.True(t, sum.Sub(dec("1000000")).Abs().LessThanOrEqual(equity.ProfitEpsilon))
}

func TestDistributionService_ResidualGoesToLargestHolder(t *testing.T) {
	h := newHarness(t, 300, 3)
	h.create(t, input(0, "99.99"))
	h.create(t, input(1, "100"))
	largest := h.create(t, input(2, "100.01"))

	dist, err := h.profits.Distribute(context.Background(), dec("100"))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, line := range dist.Lines {
		sum = sum.Add(line.ProfitShare)
	}
	assert.True(t, sum.Equal(dec("100")), "sum = %s", sum)
	assert.True(t, sum.Equal(dist.Distributed))
	assert.Equal(t, largest.ID, dist.Lines[0].ShareholderID)
}

func TestDistributionService_EmptyPool(t *testing.T) {
	h := newHarness(t, 20_000_000, 100)

	dist, err := h.profits.Distribute(context.Background(), dec("1000"))
	require.NoError(t, err)
	assert.Empty(t, dist.Lines)
	assert.True(t, dist.Distributed.IsZero())
}

func TestDistributionService_NegativeProfit(t *testing.T) {
	h := newHarness(t, 20_000_000, 100)
	h.create(t, input(0, "1000"))

	_, err := h.profits.Distribute(context.Background(), dec("-1"))
	require.Error(t, err)
	var de *shared.DomainError
	assert.True(t, errors.As(err, &de))
}
