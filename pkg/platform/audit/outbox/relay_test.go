package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu        sync.Mutex
	pending   []Entry
	published []string
	fetchErr  error
	markErr   error
}

func (f *fakeSource) FetchPending(_ context.Context, limit int) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	n := min(limit, len(f.pending))
	return append([]Entry(nil), f.pending[:n]...), nil
}

func (f *fakeSource) MarkPublished(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, ids...)
	f.pending = f.pending[len(ids):]
	return nil
}

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]Entry
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, entries []Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, entries)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func entries(ids ...string) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Key: "req-" + id, EventType: "request_claimed", Payload: []byte(`{}`)}
	}
	return out
}

func TestRelayOnce(t *testing.T) {
	t.Run("publishes then marks a batch", func(t *testing.T) {
		src := &fakeSource{pending: entries("a", "b", "c")}
		pub := &fakePublisher{}
		m := NewMetrics(prometheus.NewRegistry())
		relay := NewRelay(src, pub, WithBatchSize(2), WithMetrics(m))

		n, err := relay.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"a", "b"}, src.published)
		assert.Equal(t, 2.0, testutil.ToFloat64(m.Published))

		n, err = relay.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"a", "b", "c"}, src.published)
	})

	t.Run("empty outbox publishes nothing", func(t *testing.T) {
		pub := &fakePublisher{}
		n, err := NewRelay(&fakeSource{}, pub).RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, pub.count())
	})

	t.Run("publish failure leaves entries pending", func(t *testing.T) {
		src := &fakeSource{pending: entries("a")}
		pub := &fakePublisher{err: errors.New("broker down")}
		m := NewMetrics(prometheus.NewRegistry())
		relay := NewRelay(src, pub, WithMetrics(m))

		_, err := relay.RelayOnce(context.Background())
		require.Error(t, err)
		assert.Empty(t, src.published)
		assert.Len(t, src.pending, 1)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures))
	})

	t.Run("open breaker skips the batch", func(t *testing.T) {
		src := &fakeSource{pending: entries("a")}
		pub := &fakePublisher{err: errors.New("broker down")}
		relay := NewRelay(src, pub, WithBreaker(NewCircuitBreaker(1, time.Hour)))

		_, err := relay.RelayOnce(context.Background())
		require.Error(t, err)

		pub.err = nil
		n, err := relay.RelayOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, pub.count())
	})

	t.Run("mark failure reports an error", func(t *testing.T) {
		src := &fakeSource{pending: entries("a"), markErr: errors.New("db down")}
		_, err := NewRelay(src, &fakePublisher{}).RelayOnce(context.Background())
		assert.ErrorContains(t, err, "mark published")
	})
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{pending: entries("a")}
	pub := &fakePublisher{}
	relay := NewRelay(src, pub, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.False(t, cb.IsOpen())
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.False(t, cb.Allow())

	now = now.Add(time.Minute)
	assert.True(t, cb.Allow(), "half-open after cooldown")
	cb.RecordFailure()
	assert.True(t, cb.IsOpen(), "one failure in half-open reopens")

	now = now.Add(time.Minute)
	require.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.False(t, cb.IsOpen())
	assert.True(t, cb.Allow())
}
