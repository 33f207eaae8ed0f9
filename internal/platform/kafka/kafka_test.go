package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueprints/internal/platform/config"
	"blueprints/pkg/platform/audit/outbox"
)

func TestToRecord(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := toRecord("blueprints.audit", outbox.Entry{
		ID:        "e-1",
		Key:       "req-1",
		EventType: "request_fulfilled",
		Payload:   []byte(`{"to":"FL"}`),
		CreatedAt: at,
	})

	assert.Equal(t, "blueprints.audit", rec.Topic)
	assert.Equal(t, []byte("req-1"), rec.Key)
	assert.Equal(t, []byte(`{"to":"FL"}`), rec.Value)
	assert.Equal(t, at, rec.Timestamp)
	require.Len(t, rec.Headers, 2)
	assert.Equal(t, headerEventType, rec.Headers[0].Key)
	assert.Equal(t, []byte("request_fulfilled"), rec.Headers[0].Value)
	assert.Equal(t, []byte("e-1"), rec.Headers[1].Value)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{Topic: "t"})
	assert.ErrorContains(t, err, "KAFKA_BROKERS")
}
