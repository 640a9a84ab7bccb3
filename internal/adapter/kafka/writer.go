// Package kafka publishes detected weather alerts to a notification topic,
// so downstream channels (SMS gateway, push service) can fan them out.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/agrisahel/smartagribot/internal/config"
	"github.com/agrisahel/smartagribot/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces alert messages to the configured Kafka topic.
// It implements alert.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one alert and writes it to the topic. Messages are
// keyed by region so alerts for the same region land on the same partition
// in order.
func (p *Publisher) Publish(ctx context.Context, a domain.Alert) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Alert into a Kafka message.
func serializeToMessage(a domain.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(a.RegionID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_type", Value: []byte(a.Type)},
			{Key: "level", Value: []byte(a.Level)},
			{Key: "detected_at", Value: []byte(a.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
