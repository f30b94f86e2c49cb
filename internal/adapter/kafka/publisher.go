// Package kafka publishes mention events for downstream consumers. The
// publisher is optional; when no brokers are configured the pipeline runs
// without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kahakai/mentionmap/internal/domain"
)

// Publisher produces mention events to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the mention event topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the events of one committed write
// batch in a single WriteMessages call. Events are keyed by location so all
// events for a place land on the same partition.
func (p *Publisher) PublishBatch(ctx context.Context, events []domain.MentionEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write mention events: %w", err)
	}
	p.logger.Debug("published mention events", "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a MentionEvent into a Kafka message.
func serializeToMessage(event domain.MentionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize mention event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(event.LocationID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "channel", Value: []byte(event.Channel)},
			{Key: "created_at", Value: []byte(event.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
