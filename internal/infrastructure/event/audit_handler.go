package event

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/lending/equity/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditHandler records every committed shareholder event. Each event is
// logged, and when a writer is set it is also appended as one JSON line.
type AuditHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger

	mu     sync.Mutex
	writer io.Writer
}

// NewAuditHandler creates an audit handler. writer may be nil.
func NewAuditHandler(serializer *EventSerializer, writer io.Writer, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{
		serializer: serializer,
		writer:     writer,
		logger:     logger.Named("audit"),
	}
}

// Handle serializes the event and records it
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	line, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}

	h.logger.Info("shareholder event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("pool_code", event.PoolCode()),
	)

	if h.writer == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// EventTypes returns the registered event types the handler accepts
func (h *AuditHandler) EventTypes() []string {
	return h.serializer.RegisteredTypes()
}

var _ shared.EventHandler = (*AuditHandler)(nil)
