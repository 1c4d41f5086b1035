package equity

import (
	"sort"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProfitEpsilon is the largest difference allowed between the sum of profit
// shares and the profit being distributed, in currency units.
var ProfitEpsilon = decimal.New(1, -2)

// profitScale is the number of decimal places a profit share is rounded to
const profitScale = 2

// ProfitLine is one shareholder's part of a distribution
type ProfitLine struct {
	ShareholderID uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Percentage    decimal.Decimal `json:"percentage"`
	ProfitShare   decimal.Decimal `json:"profitShare"`
}

// Distribution is the result of spreading a profit across shareholders
type Distribution struct {
	TotalProfit decimal.Decimal `json:"totalProfit"`
	Distributed decimal.Decimal `json:"distributed"`
	Adjustment  decimal.Decimal `json:"adjustment"`
	Lines       []ProfitLine    `json:"lines"`
}

// ProfitDistributor spreads a profit proportionally to percentage stakes.
// It never touches the repository.
type ProfitDistributor struct{}

// NewProfitDistributor creates a profit distributor
func NewProfitDistributor() ProfitDistributor {
	return ProfitDistributor{}
}

// Distribute computes totalProfit × percentage / 100 for every holding, rounded
// half-up to cents. The rounding residual is added to the largest holder (ties
// go to the smallest ID) so the lines sum exactly to the proportional total,
// which equals totalProfit when the pool is fully allocated.
func (ProfitDistributor) Distribute(totalProfit decimal.Decimal, holdings []Shareholder) (Distribution, error) {
	if totalProfit.IsNegative() {
		return Distribution{}, shared.NewDomainError("INVALID_PROFIT", "Total profit cannot be negative")
	}

	result := Distribution{
		TotalProfit: totalProfit,
		Distributed: decimal.Zero,
		Adjustment:  decimal.Zero,
		Lines:       make([]ProfitLine, 0, len(holdings)),
	}
	if len(holdings) == 0 {
		return result, nil
	}

	sumPercentage := decimal.Zero
	for i := range holdings {
		h := &holdings[i]
		share := totalProfit.Mul(h.Percentage).Div(hundred).Round(profitScale)
		result.Lines = append(result.Lines, ProfitLine{
			ShareholderID: h.ID,
			Name:          h.Name,
			Percentage:    h.Percentage,
			ProfitShare:   share,
		})
		result.Distributed = result.Distributed.Add(share)
		sumPercentage = sumPercentage.Add(h.Percentage)
	}

	sort.SliceStable(result.Lines, func(i, j int) bool {
		a, b := result.Lines[i], result.Lines[j]
		if !a.Percentage.Equal(b.Percentage) {
			return a.Percentage.GreaterThan(b.Percentage)
		}
		return a.ShareholderID.String() < b.ShareholderID.String()
	})

	// Stored percentages carry eight places; a full pool may sum to 99.99999999.
	if hundred.Sub(sumPercentage).Abs().LessThanOrEqual(PercentageEpsilon) {
		sumPercentage = hundred
	}
	target := totalProfit.Mul(decimal.Min(sumPercentage, hundred)).Div(hundred).Round(profitScale)
	if residual := target.Sub(result.Distributed); !residual.IsZero() {
		result.Lines[0].ProfitShare = result.Lines[0].ProfitShare.Add(residual)
		result.Distributed = result.Distributed.Add(residual)
		result.Adjustment = residual
	}

	return result, nil
}
