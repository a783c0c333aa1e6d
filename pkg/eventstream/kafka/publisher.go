// Package kafka publishes exchange events to a Kafka topic. Each event is one
// JSON message keyed by exchange ID, so events for the same exchange land on
// the same partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/ollamaui/pkg/eventstream"
)

const (
	headerEventType     = "event_type"
	headerSchemaVersion = "schema_version"

	defaultBatchTimeout = 50 * time.Millisecond
)

// MessageWriter is the subset of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures a Publisher.
type Config struct {
	// Brokers are host:port addresses of the Kafka cluster.
	Brokers []string

	// Topic receives every event.
	Topic string
}

// Publisher implements eventstream.Publisher on a Kafka writer.
type Publisher struct {
	writer MessageWriter
}

// NewPublisher creates a Publisher backed by a kafka-go Writer.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           defaultBatchTimeout,
		AllowAutoTopicCreation: true,
	}

	return NewPublisherWithWriter(w), nil
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// PublishExchange writes event as one message.
func (p *Publisher) PublishExchange(ctx context.Context, event *eventstream.ExchangeCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	msg, err := Message(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", event.EventID, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message encodes event as a Kafka message.
func Message(event *eventstream.ExchangeCompletedEvent) (kafkago.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encoding event: %w", err)
	}

	key := event.Exchange.ID
	if key == "" {
		key = event.EventID
	}

	return kafkago.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
			{Key: headerSchemaVersion, Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	}, nil
}
