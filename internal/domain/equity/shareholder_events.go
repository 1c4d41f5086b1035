package equity

import (
	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeShareholder = "Shareholder"

// Event type constants
const (
	EventTypeShareholderCreated = "ShareholderCreated"
	EventTypeShareholderUpdated = "ShareholderUpdated"
	EventTypeShareholderDeleted = "ShareholderDeleted"
)

// ShareholderCreatedEvent is published when a shareholder is admitted to a pool
type ShareholderCreatedEvent struct {
	shared.BaseDomainEvent
	ShareholderID  uuid.UUID       `json:"shareholder_id"`
	Name           string          `json:"name"`
	InvestedAmount decimal.Decimal `json:"invested_amount"`
	Percentage     decimal.Decimal `json:"percentage"`
}

// NewShareholderCreatedEvent creates a new ShareholderCreatedEvent
func NewShareholderCreatedEvent(s *Shareholder) *ShareholderCreatedEvent {
	return &ShareholderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShareholderCreated, AggregateTypeShareholder, s.ID, s.PoolCode),
		ShareholderID:   s.ID,
		Name:            s.Name,
		InvestedAmount:  s.InvestedAmount,
		Percentage:      s.Percentage,
	}
}

// ShareholderUpdatedEvent is published when a shareholder's details change
type ShareholderUpdatedEvent struct {
	shared.BaseDomainEvent
	ShareholderID  uuid.UUID       `json:"shareholder_id"`
	Name           string          `json:"name"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	InvestedAmount decimal.Decimal `json:"invested_amount"`
	Percentage     decimal.Decimal `json:"percentage"`
}

// NewShareholderUpdatedEvent creates a new ShareholderUpdatedEvent
func NewShareholderUpdatedEvent(s *Shareholder, previousAmount decimal.Decimal) *ShareholderUpdatedEvent {
	return &ShareholderUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShareholderUpdated, AggregateTypeShareholder, s.ID, s.PoolCode),
		ShareholderID:   s.ID,
		Name:            s.Name,
		PreviousAmount:  previousAmount,
		InvestedAmount:  s.InvestedAmount,
		Percentage:      s.Percentage,
	}
}

// ShareholderDeletedEvent is published when a shareholder leaves the pool
type ShareholderDeletedEvent struct {
	shared.BaseDomainEvent
	ShareholderID  uuid.UUID       `json:"shareholder_id"`
	Name           string          `json:"name"`
	ReleasedAmount decimal.Decimal `json:"released_amount"`
}

// NewShareholderDeletedEvent creates a new ShareholderDeletedEvent
func NewShareholderDeletedEvent(s *Shareholder) *ShareholderDeletedEvent {
	return &ShareholderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShareholderDeleted, AggregateTypeShareholder, s.ID, s.PoolCode),
		ShareholderID:   s.ID,
		Name:            s.Name,
		ReleasedAmount:  s.InvestedAmount,
	}
}
