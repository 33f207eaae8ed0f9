package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	id "blueprints/pkg/domain"
	audit "blueprints/pkg/platform/audit"
	"blueprints/pkg/platform/audit/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func claimed(requestID id.RequestID) audit.Event {
	return audit.Event{RequestID: requestID, Action: audit.EventRequestClaimed}
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	requestID := id.NewRequestID()
	require.NoError(t, pub.Emit(context.Background(), claimed(requestID)))

	events, err := store.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventRequestClaimed, events[0].Action)
	assert.Equal(t, audit.CategoryLifecycle, events[0].Category)
	assert.False(t, events[0].ID.IsNil())
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	requestID := id.NewRequestID()
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), claimed(requestID)))
	}
	pub.Close()

	events, err := store.ListByRequest(context.Background(), requestID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFullDropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), claimed(id.NewRequestID()))
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_Timestamps(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stamps missing timestamp from the clock", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))
		defer pub.Close()

		require.NoError(t, pub.Emit(context.Background(), claimed(id.NewRequestID())))
		events, err := store.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, fixed, events[0].Timestamp)
	})

	t.Run("preserves an existing timestamp", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store)
		defer pub.Close()

		event := claimed(id.NewRequestID())
		event.Timestamp = fixed
		require.NoError(t, pub.Emit(context.Background(), event))

		events, err := store.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, fixed, events[0].Timestamp)
	})
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()
}
