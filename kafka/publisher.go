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

	"github.com/tair/order-fulfillment/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishOrderCreated publishes an order created event
func (p *Publisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	event.EventType = EventTypeOrderCreated
	event.EventID, event.Timestamp = eventMeta(event.EventID)
	return p.publish(ctx, event.EventType, event.EventID, event.OrderID, event)
}

// PublishOrderPaid publishes an order paid event
func (p *Publisher) PublishOrderPaid(ctx context.Context, event OrderPaidEvent) error {
	event.EventType = EventTypeOrderPaid
	event.EventID, event.Timestamp = eventMeta(event.EventID)
	return p.publish(ctx, event.EventType, event.EventID, event.OrderID, event)
}

// PublishDeliveryShipped publishes a delivery shipped event
func (p *Publisher) PublishDeliveryShipped(ctx context.Context, event DeliveryShippedEvent) error {
	event.EventType = EventTypeDeliveryShipped
	event.EventID, event.Timestamp = eventMeta(event.EventID)
	return p.publish(ctx, event.EventType, event.EventID, event.OrderID, event)
}

// PublishOrderCanceled publishes an order canceled event
func (p *Publisher) PublishOrderCanceled(ctx context.Context, event OrderCanceledEvent) error {
	event.EventType = EventTypeOrderCanceled
	event.EventID, event.Timestamp = eventMeta(event.EventID)
	return p.publish(ctx, event.EventType, event.EventID, event.OrderID, event)
}

func eventMeta(eventID string) (string, time.Time) {
	if eventID == "" {
		eventID = fmt.Sprintf("evt_%s", uuid.New().String())
	}
	return eventID, time.Now()
}

// publish marshals the event, injects trace context into the headers and
// sends it keyed by order id so per-order ordering is preserved
func (p *Publisher) publish(ctx context.Context, eventType, eventID string, orderID uint, event interface{}) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", TopicOrderLifecycle),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
			attribute.Int64("order.id", int64(orderID)),
		),
	)
	defer span.End()

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
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   TopicOrderLifecycle,
		Key:     sarama.StringEncoder(fmt.Sprintf("order_%d", orderID)),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", TopicOrderLifecycle).
			Str("event_type", eventType).
			Uint("order_id", orderID).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Logger.Info().
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", TopicOrderLifecycle).
		Int32("partition", partition).
		Int64("offset", offset).
		Uint("order_id", orderID).
		Msg("Order lifecycle event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
