// Package kafkaevents publishes dispatched-notification audit events to a
// Kafka topic.
package kafkaevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-alarm-service/internal/config"
	"github.com/couchcryptid/weather-alarm-service/internal/engine"
)

// Publisher produces notification events to the audit topic.
// It implements engine.EventPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes and writes one notification event.
func (p *Publisher) Publish(ctx context.Context, event engine.NotificationEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a NotificationEvent into a Kafka message keyed
// by recipient so per-recipient ordering is preserved.
func serializeToMessage(event engine.NotificationEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Recipient),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alarm", Value: []byte(event.Alarm)},
			{Key: "signal", Value: []byte(event.Signal)},
			{Key: "sent_at", Value: []byte(event.SentAt.Format(time.RFC3339))},
		},
	}, nil
}
