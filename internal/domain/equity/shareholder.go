package equity

import (
	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Shareholder is an investor holding a slice of a capacity pool.
// Percentage and ShareCount are derived from InvestedAmount and the pool and
// are only ever recomputed, never edited directly.
type Shareholder struct {
	shared.BaseAggregateRoot
	PoolCode       string
	Name           string
	NationalID     string
	Contact        string
	Address        string
	InvestedAmount decimal.Decimal
	Percentage     decimal.Decimal
	ShareCount     int64
}

// ShareholderDetails carries the editable fields of a shareholder
type ShareholderDetails struct {
	Name           string
	NationalID     string
	Contact        string
	Address        string
	InvestedAmount decimal.Decimal
}

// NewShareholder creates a shareholder in the given pool.
// Callers run the ValidationEngine first; this only guards the invariants the
// aggregate cannot exist without.
func NewShareholder(pool CapacityPool, details ShareholderDetails) (*Shareholder, error) {
	if err := validateInvestedAmount(details.InvestedAmount); err != nil {
		return nil, err
	}

	s := &Shareholder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PoolCode:          pool.Code,
	}
	s.assign(pool, details)

	s.AddDomainEvent(NewShareholderCreatedEvent(s))

	return s, nil
}

// Revise replaces the editable fields and recomputes the derived figures
func (s *Shareholder) Revise(pool CapacityPool, details ShareholderDetails) error {
	if err := validateInvestedAmount(details.InvestedAmount); err != nil {
		return err
	}

	previous := s.InvestedAmount
	s.assign(pool, details)
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewShareholderUpdatedEvent(s, previous))

	return nil
}

// MarkDeleted records the deletion so the freed capacity can be announced
func (s *Shareholder) MarkDeleted() {
	s.AddDomainEvent(NewShareholderDeletedEvent(s))
}

// SetShareCount stores the count produced by share apportionment
func (s *Shareholder) SetShareCount(count int64) {
	s.ShareCount = count
}

// Details returns the editable fields of the shareholder
func (s *Shareholder) Details() ShareholderDetails {
	return ShareholderDetails{
		Name:           s.Name,
		NationalID:     s.NationalID,
		Contact:        s.Contact,
		Address:        s.Address,
		InvestedAmount: s.InvestedAmount,
	}
}

func (s *Shareholder) assign(pool CapacityPool, details ShareholderDetails) {
	s.Name = details.Name
	s.NationalID = details.NationalID
	s.Contact = details.Contact
	s.Address = details.Address
	s.InvestedAmount = details.InvestedAmount
	s.Percentage = pool.PercentageOf(details.InvestedAmount)
}

func validateInvestedAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Invested amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(AmountScale)) {
		return shared.NewDomainError("INVALID_AMOUNT", "Invested amount cannot have more than 2 decimal places")
	}
	return nil
}
