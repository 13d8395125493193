package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogMessage(t *testing.T, eventType string, event CatalogUpdatedEvent) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	msg := &sarama.ConsumerMessage{Topic: TopicCatalogUpdated, Value: raw}
	if eventType != "" {
		msg.Headers = append(msg.Headers,
			&sarama.RecordHeader{Key: []byte("event_type"), Value: []byte(eventType)},
			&sarama.RecordHeader{Key: []byte("event_id"), Value: []byte(event.EventID)},
		)
	}
	return msg
}

func TestConsumer_DispatchesCatalogEvents(t *testing.T) {
	c := newConsumer(nil, "store-indexer", []string{TopicCatalogUpdated})

	var got []CatalogUpdatedEvent
	c.RegisterHandler(EventTypeCatalogUpdated, func(_ context.Context, e CatalogUpdatedEvent) error {
		got = append(got, e)
		return nil
	})

	err := c.handleMessage(context.Background(), catalogMessage(t, EventTypeCatalogUpdated, CatalogUpdatedEvent{
		EventID: "evt-1", EventType: EventTypeCatalogUpdated, Category: "shoes",
	}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "shoes", got[0].Category)
	assert.Equal(t, "evt-1", got[0].EventID)
}

func TestConsumer_RejectsUnroutableMessages(t *testing.T) {
	c := newConsumer(nil, "store-indexer", []string{TopicCatalogUpdated})
	called := false
	c.RegisterHandler(EventTypeCatalogUpdated, func(context.Context, CatalogUpdatedEvent) error {
		called = true
		return nil
	})

	t.Run("missing event type", func(t *testing.T) {
		err := c.handleMessage(context.Background(), catalogMessage(t, "", CatalogUpdatedEvent{}))
		assert.Error(t, err)
	})

	t.Run("unknown event type", func(t *testing.T) {
		err := c.handleMessage(context.Background(), catalogMessage(t, "catalog.deleted", CatalogUpdatedEvent{}))
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		msg := catalogMessage(t, EventTypeCatalogUpdated, CatalogUpdatedEvent{})
		msg.Value = []byte("{not json")
		assert.Error(t, c.handleMessage(context.Background(), msg))
	})

	assert.False(t, called)
}

func TestConsumer_HandlerError(t *testing.T) {
	c := newConsumer(nil, "store-indexer", []string{TopicCatalogUpdated})
	c.RegisterHandler(EventTypeCatalogUpdated, func(context.Context, CatalogUpdatedEvent) error {
		return errors.New("index unavailable")
	})

	err := c.handleMessage(context.Background(), catalogMessage(t, EventTypeCatalogUpdated, CatalogUpdatedEvent{EventID: "evt-2"}))
	assert.EqualError(t, err, "index unavailable")
}
