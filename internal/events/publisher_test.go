package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rental-marketplace-backend/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func testEvent() *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            3,
		EventID:       "evt-1",
		AggregateType: "reservation",
		AggregateID:   21,
		EventType:     domain.EventReservationCreated,
		Payload:       json.RawMessage(`{"reservation_id":21}`),
		CreatedAt:     time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &kafkaPublisher{writer: w, topic: "rental-events"}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "reservation-21", string(msg.Key))
	assert.Equal(t, domain.EventReservationCreated, string(msg.Headers[0].Value))

	var env envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "evt-1", env.EventID)
	assert.JSONEq(t, `{"reservation_id":21}`, string(env.Payload))
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	p := &kafkaPublisher{writer: &recordingWriter{err: assert.AnError}, topic: "rental-events"}

	err := p.Publish(context.Background(), testEvent())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to write reservation.created event")
}
