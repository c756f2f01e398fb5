package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/fire-danger-service/internal/config"
	"github.com/couchcryptid/fire-danger-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces readings to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured reading topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes a reading and writes it keyed by district, so every
// reading for a district lands on the same partition in order.
func (w *Writer) Publish(ctx context.Context, reading domain.Reading) error {
	msg, err := serializeToMessage(reading)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write reading: %w", err)
	}
	w.logger.Debug("reading published", "topic", w.writer.Topic, "state", reading.State)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Reading into a Kafka message.
func serializeToMessage(reading domain.Reading) (kafkago.Message, error) {
	data, err := json.Marshal(reading)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize reading: %w", err)
	}
	district, _ := reading.Attributes[domain.AttrDistrict].(string)
	return kafkago.Message{
		Key:   []byte(district),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(reading.State)},
			{Key: "available", Value: []byte(strconv.FormatBool(reading.Available))},
			{Key: "refreshed_at", Value: []byte(reading.RefreshedAt.Format(time.RFC3339))},
		},
	}, nil
}
