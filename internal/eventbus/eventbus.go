package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/google/uuid"
)

// ErrClosed возвращается Publish после закрытия шины
var ErrClosed = errors.New("eventbus: шина закрыта")

// EventType тип события жизненного цикла чанка
type EventType string

const (
	ChunkGenerated EventType = "chunk.generated" // Воксели опубликованы в хранилище
	ChunkMeshed    EventType = "chunk.meshed"    // Сетка передана в приёмник
	ChunkEvicted   EventType = "chunk.evicted"   // Запись отрисовки удалена за радиусом отрисовки
	ChunkDropped   EventType = "chunk.dropped"   // Воксели выгружены за радиусом хранения
)

// Event описывает одно изменение состояния чанка
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Type      EventType
	Key       vec.Vec3
	LOD       int    // Только для ChunkMeshed
	Tick      uint64 // Номер тика, в котором произошло событие
}

// NewEvent создаёт событие с новым идентификатором и текущим временем
func NewEvent(t EventType, key vec.Vec3, tick uint64) *Event {
	return &Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Type:      t,
		Key:       key,
		Tick:      tick,
	}
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types []EventType // Если пусто, то все типы.
}

func (f Filter) match(ev *Event) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == ev.Type {
			return true
		}
	}
	return false
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Event)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины событий чанков.
type EventBus interface {
	Publish(ctx context.Context, ev *Event) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close()
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]subscriber
	nextID      int
	closed      bool

	buffer chan *Event
	done   chan struct{}
	once   sync.Once

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory шину с указанным буфером.
// Обработчики вызываются по очереди в одной горутине, поэтому каждый видит события в порядке публикации.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1
	}
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Event, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

// Publish ставит событие в буфер. Если буфер заполнен, событие отбрасывается:
// тик не должен ждать подписчиков.
func (mb *memoryBus) Publish(ctx context.Context, ev *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
	default:
		mb.dropped.Add(1)
	}
	return nil
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return nil, ErrClosed
	}

	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}
	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	return Stats{
		Published: mb.published.Load(),
		Consumed:  mb.consumed.Load(),
		Dropped:   mb.dropped.Load(),
		InFlight:  len(mb.buffer),
	}
}

// Close перестаёт принимать события и ждёт, пока подписчики получат уже принятые
func (mb *memoryBus) Close() {
	mb.once.Do(func() {
		mb.mu.Lock()
		mb.closed = true
		close(mb.buffer)
		mb.mu.Unlock()
	})
	<-mb.done
}

// dispatchLoop рассылает события подписчикам.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.mu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if !sub.filter.match(ev) || sub.ctx.Err() != nil {
				continue
			}
			sub.handler(sub.ctx, ev)
			mb.consumed.Add(1)
		}
	}
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
