package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flight-weather-etl/internal/config"
	"github.com/couchcryptid/flight-weather-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces one message per resolved station to a Kafka topic.
// It implements fetch.OutcomePublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured outcome topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaOutcomeTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes the outcome and writes it keyed by station code, so all
// outcomes of a station land on the same partition in run order.
func (p *Publisher) Publish(ctx context.Context, outcome domain.FetchOutcome) error {
	msg, err := serializeToMessage(outcome)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish outcome for %s: %w", outcome.Station, err)
	}
	p.logger.Debug("outcome published", "station", outcome.Station, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a FetchOutcome into a Kafka message.
func serializeToMessage(outcome domain.FetchOutcome) (kafkago.Message, error) {
	data, err := json.Marshal(outcome)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fetch outcome: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(outcome.Station),
		Value: data,
		Time:  outcome.ResolvedAt,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(outcome.Status)},
			{Key: "resolved_at", Value: []byte(outcome.ResolvedAt.Format(time.RFC3339))},
			{Key: "run_id", Value: []byte(outcome.RunID)},
		},
	}, nil
}
