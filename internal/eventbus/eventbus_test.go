package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder собирает события, полученные подписчиком
type recorder struct {
	mu     sync.Mutex
	events []*Event
}

func (r *recorder) handle(_ context.Context, ev *Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) keys() []vec.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]vec.Vec3, 0, len(r.events))
	for _, ev := range r.events {
		keys = append(keys, ev.Key)
	}
	return keys
}

func TestPublishSubscribeOrder(t *testing.T) {
	bus := NewMemoryBus(16)
	var all recorder
	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)

	ctx := context.Background()
	for x := 0; x < 5; x++ {
		require.NoError(t, bus.Publish(ctx, NewEvent(ChunkGenerated, vec.Vec3{X: x}, 1)))
	}
	bus.Close()

	assert.Equal(t, []vec.Vec3{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}}, all.keys(), "События приходят в порядке публикации")
	stats := bus.Metrics()
	assert.Equal(t, uint64(5), stats.Published)
	assert.Equal(t, uint64(5), stats.Consumed)
	assert.Equal(t, 0, stats.InFlight)
}

func TestFilterByType(t *testing.T) {
	bus := NewMemoryBus(16)
	var meshed recorder
	_, err := bus.Subscribe(context.Background(), Filter{Types: []EventType{ChunkMeshed}}, meshed.handle)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewEvent(ChunkGenerated, vec.Vec3{X: 1}, 1)))
	ev := NewEvent(ChunkMeshed, vec.Vec3{X: 2}, 2)
	ev.LOD = 3
	require.NoError(t, bus.Publish(ctx, ev))
	require.NoError(t, bus.Publish(ctx, NewEvent(ChunkEvicted, vec.Vec3{X: 3}, 3)))
	bus.Close()

	require.Len(t, meshed.events, 1)
	assert.Equal(t, ChunkMeshed, meshed.events[0].Type)
	assert.Equal(t, 3, meshed.events[0].LOD)
	assert.NotEqual(t, meshed.events[0].ID, NewEvent(ChunkMeshed, vec.Vec3{}, 0).ID)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)
	var r recorder
	sub, err := bus.Subscribe(context.Background(), Filter{}, r.handle)
	require.NoError(t, err)
	sub.Unsubscribe()
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), NewEvent(ChunkDropped, vec.Vec3{}, 1)))
	bus.Close()
	assert.Empty(t, r.keys())
	assert.Equal(t, uint64(0), bus.Metrics().Consumed)
}

func TestFullBufferDropsEvents(t *testing.T) {
	bus := NewMemoryBus(1)
	release := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Event) { <-release })
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(ctx, NewEvent(ChunkGenerated, vec.Vec3{X: i}, 1)))
	}
	close(release)
	bus.Close()

	stats := bus.Metrics()
	assert.GreaterOrEqual(t, stats.Dropped, uint64(1), "Публикация не ждёт медленного подписчика")
	assert.Equal(t, uint64(3), stats.Published+stats.Dropped)
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(4)
	bus.Close()
	bus.Close()

	assert.ErrorIs(t, bus.Publish(context.Background(), NewEvent(ChunkGenerated, vec.Vec3{}, 0)), ErrClosed)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Event) {})
	assert.ErrorIs(t, err, ErrClosed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemoryBus(1).Publish(ctx, NewEvent(ChunkGenerated, vec.Vec3{}, 0)), context.Canceled)
}

func TestLoggingListener(t *testing.T) {
	bus := NewMemoryBus(4)
	sub, err := StartLoggingListener(bus)
	require.NoError(t, err)
	require.NotNil(t, sub)

	require.NoError(t, bus.Publish(context.Background(), NewEvent(ChunkMeshed, vec.Vec3{}, 1)))
	bus.Close()
	assert.Equal(t, uint64(1), bus.Metrics().Consumed)
}
