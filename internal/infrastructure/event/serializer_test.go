package event

import (
	"encoding/json"
	"testing"

	"github.com/lending/equity/internal/domain/equity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShareholder(t *testing.T) *equity.Shareholder {
	t.Helper()
	pool, err := equity.NewCapacityPool(equity.DefaultPoolCode, decimal.NewFromInt(20_000_000), 100)
	require.NoError(t, err)
	s, err := equity.NewShareholder(pool, equity.ShareholderDetails{
		Name:           "Nimal Perera",
		NationalID:     "941234567V",
		Contact:        "0771234567",
		Address:        "45 Galle Road",
		InvestedAmount: decimal.NewFromInt(5_000_000),
	})
	require.NoError(t, err)
	return s
}

func TestEventSerializer_RegisterEquityEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterEquityEvents(serializer)

	assert.Equal(t, []string{
		equity.EventTypeShareholderCreated,
		equity.EventTypeShareholderDeleted,
		equity.EventTypeShareholderUpdated,
	}, serializer.RegisteredTypes())
	assert.False(t, serializer.IsRegistered("Unknown"))
}

func TestEventSerializer_Envelope(t *testing.T) {
	serializer := NewEventSerializer()
	event := equity.NewShareholderCreatedEvent(testShareholder(t))

	data, err := serializer.Serialize(event)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, event.EventID(), env.EventID)
	assert.Equal(t, equity.EventTypeShareholderCreated, env.EventType)
	assert.Equal(t, equity.DefaultPoolCode, env.PoolCode)
	assert.Contains(t, string(env.Payload), `"invested_amount":"5000000"`)
}

func TestEventSerializer_Deserialize(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterEquityEvents(serializer)
	original := equity.NewShareholderCreatedEvent(testShareholder(t))

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize(data)
	require.NoError(t, err)

	created, ok := decoded.(*equity.ShareholderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, original.ShareholderID, created.ShareholderID)
	assert.True(t, original.InvestedAmount.Equal(created.InvestedAmount))
	assert.True(t, original.Percentage.Equal(created.Percentage))
	assert.Equal(t, original.PoolCode(), created.PoolCode())
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize([]byte("not json"))
	assert.Error(t, err)

	_, err = serializer.Deserialize([]byte(`{"event_type":"Unknown","payload":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}
