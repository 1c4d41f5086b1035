package event

import (
	"bufio"
	"bytes"
	"context"
	"testing"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditHandler_WritesJSONLines(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterEquityEvents(serializer)

	var buf bytes.Buffer
	core, logs := observer.New(zap.InfoLevel)
	handler := NewAuditHandler(serializer, &buf, zap.New(core))

	bus := startedBus(t, zap.NewNop())
	bus.Subscribe(handler)

	s := testShareholder(t)
	s.MarkDeleted()
	require.NoError(t, bus.Publish(context.Background(), s.GetDomainEvents()...))

	var types []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		decoded, err := serializer.Deserialize(scanner.Bytes())
		require.NoError(t, err)
		types = append(types, decoded.EventType())
	}
	assert.Equal(t, []string{equity.EventTypeShareholderCreated, equity.EventTypeShareholderDeleted}, types)
	assert.Equal(t, 2, logs.FilterMessage("shareholder event").Len())
}

func TestAuditHandler_WithoutWriter(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterEquityEvents(serializer)
	handler := NewAuditHandler(serializer, nil, nil)

	event := equity.NewShareholderCreatedEvent(testShareholder(t))
	assert.NoError(t, handler.Handle(context.Background(), event))
	assert.ElementsMatch(t, serializer.RegisteredTypes(), handler.EventTypes())
}
