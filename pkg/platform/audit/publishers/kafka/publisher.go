// Package kafka publishes audit events to a Kafka topic for downstream
// retention pipelines.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"docket/pkg/platform/audit"
)

// Publisher produces audit events as JSON records keyed by record id, so
// all events for one record land in one partition in order.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New creates a Kafka-backed audit publisher.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Emit produces the event asynchronously; delivery failures are logged,
// not returned, because audit emission must never block domain writes.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.RecordID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.Warn("failed to produce audit event",
				"action", event.Action,
				"record_id", event.RecordID,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes outstanding produces and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
