package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher emits one domain event. Implementations must not block the
// caller for long; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, eventType string, correlationID int64, payload any) error
}

const eventVersion = 1

func newEnvelope(producer, eventType string, correlationID int64, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  eventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.FormatInt(correlationID, 10),
		Payload:       raw,
	}, nil
}

// KafkaPublisher wraps events in an Envelope and hands them to a Producer.
type KafkaPublisher struct {
	producer *Producer
	service  string
}

func NewKafkaPublisher(p *Producer, service string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, service: service}
}

func (k *KafkaPublisher) Publish(ctx context.Context, eventType string, correlationID int64, payload any) error {
	ev, err := newEnvelope(k.service, eventType, correlationID, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return k.producer.Publish(ctx, PartitionKey(correlationID), value,
		kafka.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
	)
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, int64, any) error { return nil }

// Memory keeps published envelopes in order. Tests use it to assert on
// emitted events.
type Memory struct {
	mu     sync.Mutex
	events []Envelope
}

func (m *Memory) Publish(_ context.Context, eventType string, correlationID int64, payload any) error {
	ev, err := newEnvelope("memory", eventType, correlationID, payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Events() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Envelope(nil), m.events...)
}

// Types lists the event types published so far.
func (m *Memory) Types() []string {
	var out []string
	for _, ev := range m.Events() {
		out = append(out, ev.EventType)
	}
	return out
}
