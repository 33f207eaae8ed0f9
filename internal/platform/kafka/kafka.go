// Package kafka publishes outbox entries with franz-go.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"blueprints/internal/platform/config"
	"blueprints/pkg/platform/audit/outbox"
)

const (
	headerEventType = "event_type"
	headerEventID   = "event_id"
)

// Producer writes outbox entries to one topic, keyed by request so events for
// a request stay ordered within a partition.
type Producer struct {
	client *kgo.Client
	topic  string
}

func NewProducer(cfg config.KafkaConfig, opts ...kgo.Opt) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Producer{client: client, topic: cfg.Topic}, nil
}

// EnsureTopic creates the topic when missing.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicas, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", p.topic, resp.Err)
	}
	return nil
}

// Publish produces the batch synchronously.
func (p *Producer) Publish(ctx context.Context, entries []outbox.Entry) error {
	records := make([]*kgo.Record, len(entries))
	for i, e := range entries {
		records[i] = toRecord(p.topic, e)
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce: %w", err)
	}
	return nil
}

// Ping checks broker connectivity for readiness.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}

func toRecord(topic string, e outbox.Entry) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(e.Key),
		Value: e.Payload,
		Headers: []kgo.RecordHeader{
			{Key: headerEventType, Value: []byte(e.EventType)},
			{Key: headerEventID, Value: []byte(e.ID)},
		},
		Timestamp: e.CreatedAt,
	}
}
