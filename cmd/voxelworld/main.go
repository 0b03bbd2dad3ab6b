package main

import (
	"context"
	"errors"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/engine"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/streaming"
	"github.com/annel0/voxel-world/internal/util"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
)

// jumpSpeed вертикальная скорость прыжка, когда наблюдатель упёрся в стену на земле
const jumpSpeed = 7.0

const (
	reportInterval  = 10 * time.Second
	eventBufferSize = 4096
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	config.ApplyFlags(cfg)

	if err := logging.InitLogger(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	logging.LogInfo("🌍 Запуск воксельного мира: seed=%d, радиус=%d, LOD-шаг=%d",
		cfg.Terrain.Seed, cfg.Streaming.RenderDistance, cfg.Streaming.LODRange)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			logging.LogWarn("⚠️ Трассировка отключена: %v", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logging.LogWarn("Ошибка остановки трассировки: %v", err)
				}
			}()
			logging.LogInfo("🔭 Трассировка включена: %s", cfg.Telemetry.ServiceName)
		}
	}

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		server := metrics.StartHTTP(cfg.Metrics.GetAddr(), registry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				logging.LogWarn("Ошибка остановки сервера метрик: %v", err)
			}
		}()
	}

	// === ШИНА СОБЫТИЙ ===
	bus := eventbus.NewMemoryBus(eventBufferSize)
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.LogWarn("⚠️ Слушатель событий не запущен: %v", err)
	}

	// === ДВИЖОК ===
	opts := engine.Options{
		TickRate:       cfg.Engine.TickRate,
		WorkBudget:     cfg.Engine.WorkBudget,
		Workers:        cfg.Engine.Workers,
		MaxJobsPerTick: cfg.Engine.MaxJobsPerTick,
		MaxTicks:       cfg.Engine.MaxTicks,
		Streaming:      cfg.Streaming,
		Noise:          util.NewPerlinField(cfg.Terrain.Seed),
		NoiseScale:     cfg.Terrain.NoiseScale,
		Registerer:     registry,
		Bus:            bus,
	}

	sink := streaming.NewMemorySink()
	e := engine.New(opts, sink, nil)
	defer e.Stop()

	e.Observer = physics.NewObserver(spawnPoint(e, cfg.Observer), physics.DefaultHalfExtents)
	e.Driver = walker(cfg.Observer)

	logging.LogInfo("🧍 Наблюдатель %s появился в %v", e.Observer.ID, e.Observer.Position)

	waitReporter := func() {}
	sampler, err := metrics.NewProcessSampler(registry)
	if err != nil {
		logging.LogWarn("⚠️ Статистика процесса недоступна: %v", err)
	} else {
		waitReporter = startReporter(ctx, e, sampler, reportInterval)
	}

	err = e.Run(ctx)
	switch {
	case err == nil:
		logging.LogInfo("⏹️ Достигнут лимит тиков: %d", cfg.Engine.MaxTicks)
	case errors.Is(err, context.Canceled):
		logging.LogInfo("🛑 Получен сигнал завершения")
	default:
		logging.LogError("❌ Ошибка цикла движка: %v", err)
	}

	// Итоговый отчёт пишется только после остановки периодического
	stop()
	waitReporter()

	s := e.Stats()
	ss := sink.Stats()
	logging.LogInfo("📊 Итог: тиков %d, загружено %d, сгенерировано %d, сеток %d, в приёмнике %d",
		s.Ticks, s.Loaded, s.Generated, s.MeshesExtracted, ss.Live)
	bs := bus.Metrics()
	logging.LogInfo("📨 События: отправлено %d, доставлено %d, отброшено %d",
		bs.Published, bs.Consumed, bs.Dropped)
	logging.LogInfo("🧍 Наблюдатель остановился в %v", e.Observer.Position)
	if sampler != nil {
		logging.LogInfo("🖥️ Процесс: %s", sampler.Sample())
	}
	logging.LogInfo("👋 Мир остановлен")
}

// startReporter запускает периодический отчёт о состоянии движка и процесса.
// Возвращённая функция блокируется, пока отчёт не остановится после отмены ctx.
func startReporter(ctx context.Context, e *engine.Engine, sampler *metrics.ProcessSampler, interval time.Duration) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		reportLoop(ctx, e, sampler, interval)
	}()
	return func() { <-done }
}

func reportLoop(ctx context.Context, e *engine.Engine, sampler *metrics.ProcessSampler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := e.Stats()
			logging.LogInfo("📊 Тик %d: загружено %d, сгенерировано %d, ожидают генерации %d, ожидают сеток %d; %s",
				s.Ticks, s.Loaded, s.Generated, s.PendingGenerations, s.PendingExtractions, sampler.Sample())
		}
	}
}

// spawnPoint ставит наблюдателя на поверхность над точкой появления, если высота не задана
func spawnPoint(e *engine.Engine, oc config.ObserverConfig) mgl64.Vec3 {
	pos := mgl64.Vec3{oc.Spawn[0], oc.Spawn[1], oc.Spawn[2]}
	if pos.Y() != 0 {
		return pos
	}
	column := vec.Vec3{X: int(math.Floor(pos.X())), Z: int(math.Floor(pos.Z()))}
	h := e.Generator.ColumnHeight(column)
	// Ступни на блок выше поверхности с небольшим зазором
	pos[1] = float64(h) + 1 + physics.DefaultHalfExtents.Y() + 0.01
	return pos
}

// walker возвращает сценарий: идти вдоль +X, падать под гравитацией, запрыгивать на уступы
func walker(oc config.ObserverConfig) engine.Driver {
	return func(obs *physics.Observer, dt float64) {
		if obs.Grounded() && obs.Mask.X() == 0 {
			obs.Velocity[1] = jumpSpeed
		}
		obs.Velocity[0] = oc.WalkSpeed
		obs.Accelerate(mgl64.Vec3{0, -oc.Gravity, 0}, dt)
	}
}
