package rounding

import (
	"sort"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/lending/equity/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// quotaEntry tracks one holding while shares are apportioned
type quotaEntry struct {
	id        uuid.UUID
	quota     decimal.Decimal
	floor     int64
	remainder decimal.Decimal
	count     int64
}

func buildQuotas(totalShares int64, holdings []strategy.ShareHolding) ([]quotaEntry, decimal.Decimal, error) {
	if totalShares <= 0 {
		return nil, decimal.Zero, shared.NewDomainError("INVALID_SHARE_POOL", "Share pool must be positive")
	}

	entries := make([]quotaEntry, 0, len(holdings))
	sum := decimal.Zero
	for _, h := range holdings {
		if h.Percentage.IsNegative() {
			return nil, decimal.Zero, shared.NewDomainError("INVALID_PERCENTAGE", "Percentage cannot be negative")
		}
		q := strategy.Quota(h.Percentage, totalShares)
		f := q.Floor()
		entries = append(entries, quotaEntry{
			id:        h.ID,
			quota:     q,
			floor:     f.IntPart(),
			remainder: q.Sub(f),
		})
		sum = sum.Add(q)
	}
	return entries, sum, nil
}

// byRemainder orders entries by remainder, ties broken by ascending ID
func byRemainder(entries []quotaEntry, descending bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.remainder.Equal(b.remainder) {
			if descending {
				return a.remainder.GreaterThan(b.remainder)
			}
			return a.remainder.LessThan(b.remainder)
		}
		return a.id.String() < b.id.String()
	})
}

func toResult(entries []quotaEntry) strategy.ApportionResult {
	result := strategy.ApportionResult{Counts: make(map[uuid.UUID]int64, len(entries))}
	for _, e := range entries {
		result.Counts[e.id] = e.count
		result.Total += e.count
	}
	return result
}

func overAllocated() error {
	return shared.NewDomainError("INVALID_STATE", "Holdings exceed the share pool")
}
