package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"

	"github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

// Publisher ships outbox events to the message bus
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
	Close() error
}

// envelope is the message value consumers see
type envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   int32           `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return &kafkaPublisher{writer: writer, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	logger.ExternalServiceCall("kafka", "WriteMessages", "topic", p.topic, "eventID", event.EventID)
	err = p.writer.WriteMessages(ctx, msg)
	logger.ExternalServiceResult("kafka", "WriteMessages", err, "eventID", event.EventID)
	if err != nil {
		return fmt.Errorf("failed to write %s event to kafka: %w", event.EventType, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// toMessage keys by aggregate so events of one aggregate land on one partition in order
func toMessage(event *domain.OutboxEvent) (kafka.Message, error) {
	value, err := json.Marshal(envelope{
		EventID:       event.EventID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		OccurredAt:    event.CreatedAt,
		Payload:       event.Payload,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s event: %w", event.EventType, err)
	}
	return kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%d", event.AggregateType, event.AggregateID)),
		Value: value,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.EventType)},
			{Key: "event-id", Value: []byte(event.EventID)},
		},
	}, nil
}

type logPublisher struct{}

// NewLogPublisher returns a Publisher that only logs, used when no brokers are configured
func NewLogPublisher() Publisher { return logPublisher{} }

func (logPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	logger.DebugContext(ctx, "Event relay disabled, dropping event", "eventType", event.EventType, "eventID", event.EventID)
	return nil
}

func (logPublisher) Close() error { return nil }
