package event

import "github.com/lending/equity/internal/domain/equity"

// RegisterEquityEvents registers the shareholder events with the serializer
// so audit records can be decoded back into typed events
func RegisterEquityEvents(serializer *EventSerializer) {
	serializer.Register(equity.EventTypeShareholderCreated, &equity.ShareholderCreatedEvent{})
	serializer.Register(equity.EventTypeShareholderUpdated, &equity.ShareholderUpdatedEvent{})
	serializer.Register(equity.EventTypeShareholderDeleted, &equity.ShareholderDeletedEvent{})
}
