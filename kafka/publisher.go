package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/hiking-store/internal/store/domain"
	"github.com/tair/hiking-store/pkg/logger"
)

// Publisher wraps Kafka producer. It implements domain.EventPublisher.
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

var _ domain.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return NewPublisherWithProducer(producer, brokers), nil
}

// NewPublisherWithProducer wraps an existing producer
func NewPublisherWithProducer(producer sarama.SyncProducer, brokers []string) *Publisher {
	return &Publisher{producer: producer, brokers: brokers}
}

// PublishProductViewed publishes a product viewed event keyed by user
func (p *Publisher) PublishProductViewed(ctx context.Context, e domain.ProductViewedEvent) error {
	event := ProductViewedEvent{
		EventID:   uuid.NewString(),
		EventType: EventTypeProductViewed,
		UserID:    e.UserID,
		ProductID: e.ProductID,
		Timestamp: e.ViewedAt,
	}
	return p.publish(ctx, TopicProductViewed, event.EventType, event.EventID, e.UserID, event,
		attribute.String("user.id", e.UserID),
		attribute.String("product.id", e.ProductID),
	)
}

// PublishFavoriteToggled publishes a favorite toggled event keyed by user
func (p *Publisher) PublishFavoriteToggled(ctx context.Context, e domain.FavoriteToggledEvent) error {
	event := FavoriteToggledEvent{
		EventID:     uuid.NewString(),
		EventType:   EventTypeFavoriteToggled,
		UserID:      e.UserID,
		ProductID:   e.ProductID,
		IsFavorited: e.IsFavorited,
		Timestamp:   e.ToggledAt,
	}
	return p.publish(ctx, TopicFavoriteToggled, event.EventType, event.EventID, e.UserID, event,
		attribute.String("user.id", e.UserID),
		attribute.String("product.id", e.ProductID),
		attribute.Bool("favorite.added", e.IsFavorited),
	)
}

// PublishCatalogUpdated publishes a catalog change notification keyed by category
func (p *Publisher) PublishCatalogUpdated(ctx context.Context, e domain.CatalogUpdatedEvent) error {
	category := string(e.Category)
	event := CatalogUpdatedEvent{
		EventID:   uuid.NewString(),
		EventType: EventTypeCatalogUpdated,
		Category:  category,
		Timestamp: e.UpdatedAt,
	}
	return p.publish(ctx, TopicCatalogUpdated, event.EventType, event.EventID, category, event,
		attribute.String("product.category", category),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, eventID, key string, event interface{}, attrs ...attribute.KeyValue) error {
	// Start tracing span
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	// Marshal event to JSON
	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}

	// Add trace context to headers
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	// Create Kafka message
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	// Send message
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Warn(ctx).
			Err(err).
			Str("topic", topic).
			Str("event_id", eventID).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published")

	logger.Debug(ctx).
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
