package equity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/shopspring/decimal"
)

// CreateShareholderInput carries the raw fields of a new shareholder.
// Amounts stay strings so that malformed input is reported per field.
type CreateShareholderInput struct {
	Name           string `json:"name"`
	NationalID     string `json:"nationalId"`
	Contact        string `json:"contact"`
	Address        string `json:"address"`
	InvestedAmount string `json:"investedAmount"`
}

func (in CreateShareholderInput) candidate() equity.Candidate {
	return equity.Candidate{
		Name:           in.Name,
		NationalID:     in.NationalID,
		Contact:        in.Contact,
		Address:        in.Address,
		InvestedAmount: in.InvestedAmount,
	}
}

// UpdateShareholderInput is a patch; nil fields keep their stored values
type UpdateShareholderInput struct {
	Name           *string `json:"name,omitempty"`
	NationalID     *string `json:"nationalId,omitempty"`
	Contact        *string `json:"contact,omitempty"`
	Address        *string `json:"address,omitempty"`
	InvestedAmount *string `json:"investedAmount,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (in UpdateShareholderInput) IsEmpty() bool {
	return in.Name == nil && in.NationalID == nil && in.Contact == nil &&
		in.Address == nil && in.InvestedAmount == nil
}

func (in UpdateShareholderInput) applyTo(c equity.Candidate) equity.Candidate {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.NationalID != nil {
		c.NationalID = *in.NationalID
	}
	if in.Contact != nil {
		c.Contact = *in.Contact
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.InvestedAmount != nil {
		c.InvestedAmount = *in.InvestedAmount
	}
	return c
}

// ShareholderListFilter represents list query options
type ShareholderListFilter struct {
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	OrderBy  string `json:"orderBy"`
	OrderDir string `json:"orderDir"`
	Search   string `json:"search"`
}

// ShareholderResponse is the persisted record shape
type ShareholderResponse struct {
	ID             uuid.UUID       `json:"id"`
	PoolCode       string          `json:"poolCode"`
	Name           string          `json:"name"`
	NationalID     string          `json:"nationalId"`
	Contact        string          `json:"contact"`
	Address        string          `json:"address"`
	InvestedAmount decimal.Decimal `json:"investedAmount"`
	Percentage     decimal.Decimal `json:"percentage"`
	ShareCount     int64           `json:"shareCount"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ToShareholderResponse converts a domain shareholder to a response
func ToShareholderResponse(s *equity.Shareholder) ShareholderResponse {
	return ShareholderResponse{
		ID:             s.ID,
		PoolCode:       s.PoolCode,
		Name:           s.Name,
		NationalID:     s.NationalID,
		Contact:        s.Contact,
		Address:        s.Address,
		InvestedAmount: s.InvestedAmount,
		Percentage:     s.Percentage,
		ShareCount:     s.ShareCount,
		Version:        s.GetVersion(),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// ToShareholderResponses converts a slice of shareholders
func ToShareholderResponses(holders []equity.Shareholder) []ShareholderResponse {
	out := make([]ShareholderResponse, len(holders))
	for i := range holders {
		out[i] = ToShareholderResponse(&holders[i])
	}
	return out
}

// PoolSummaryResponse is the capacity position of a pool
type PoolSummaryResponse struct {
	PoolCode            string          `json:"poolCode"`
	TotalCapacity       decimal.Decimal `json:"totalCapacity"`
	TotalInvested       decimal.Decimal `json:"totalInvested"`
	RemainingCapacity   decimal.Decimal `json:"remainingCapacity"`
	AllocatedPercentage decimal.Decimal `json:"allocatedPercentage"`
	TotalShares         int64           `json:"totalShares"`
	AllocatedShares     int64           `json:"allocatedShares"`
	HolderCount         int             `json:"holderCount"`
	RoundingStrategy    string          `json:"roundingStrategy"`
}

// PreviewResponse is the derived position of a candidate amount
type PreviewResponse struct {
	Amount            decimal.Decimal `json:"amount"`
	Percentage        decimal.Decimal `json:"percentage"`
	ShareCount        int64           `json:"shareCount"`
	RemainingCapacity decimal.Decimal `json:"remainingCapacity"`
	IsValid           bool            `json:"isValid"`
}

// ToPreviewResponse converts a calculator preview to a response
func ToPreviewResponse(p equity.AllocationPreview) PreviewResponse {
	return PreviewResponse{
		Amount:            p.Amount,
		Percentage:        p.Percentage,
		ShareCount:        p.ShareCount,
		RemainingCapacity: p.RemainingCapacity,
		IsValid:           p.IsValid,
	}
}

// DistributionResponse is a profit distribution for one pool
type DistributionResponse struct {
	PoolCode string `json:"poolCode"`
	equity.Distribution
}
