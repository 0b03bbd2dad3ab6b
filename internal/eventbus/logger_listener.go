package eventbus

import (
	"context"

	"github.com/annel0/voxel-world/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог шины на уровне TRACE.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	logger := logging.GetComponentLogger("eventbus")
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Event) {
		if ev.Type == ChunkMeshed {
			logger.Trace("[EventBus] тик %d: %s %v lod=%d", ev.Tick, ev.Type, ev.Key, ev.LOD)
			return
		}
		logger.Trace("[EventBus] тик %d: %s %v", ev.Tick, ev.Type, ev.Key)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на события чанков активирована")
	return sub, nil
}
