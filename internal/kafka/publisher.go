package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ingestion-service/internal/logging"
	"ingestion-service/internal/models"
)

// Publisher emits persisted activities as JSON events on a Kafka topic,
// keyed by channel id so one channel's events stay ordered.
type Publisher struct {
	writer *kafka.Writer
	logger *logging.Logger
}

func NewPublisher(broker, topic string, logger *logging.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: writer, logger: logger}
}

// Publish writes one activity event.
func (p *Publisher) Publish(ctx context.Context, a models.Activity) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode activity %s: %w", a.ID, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.ChannelID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish activity %s: %w", a.ID, err)
	}

	return nil
}

func (p *Publisher) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Errorf("Failed to close Kafka writer: %v", err)
	}
}
