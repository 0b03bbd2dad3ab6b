package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/streaming"
	"github.com/annel0/voxel-world/internal/util"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options задаёт параметры движка
type Options struct {
	TickRate       int              // Тиков в секунду для Run
	WorkBudget     time.Duration    // Лимит времени на фазу генерации или построения сеток; 0 = без лимита
	Workers        int              // Размер пула воркеров
	MaxJobsPerTick int              // Лимит задач на фазу; 0 = без лимита
	MaxTicks       int              // Run останавливается после стольких тиков; 0 = без лимита
	Streaming      streaming.Config // Кольцо стриминга
	Noise          util.NoiseField  // Шум высот
	NoiseScale     float64          // Масштаб шума
	Registerer     prometheus.Registerer
	Bus            eventbus.EventBus // Шина событий жизненного цикла чанков; nil = без событий
}

// DefaultOptions возвращает параметры по умолчанию с шумом Перлина для seed
func DefaultOptions(seed int64) Options {
	return Options{
		TickRate:       60,
		WorkBudget:     5 * time.Millisecond,
		Workers:        runtime.NumCPU(),
		MaxJobsPerTick: 256,
		Streaming:      streaming.DefaultConfig(),
		Noise:          util.NewPerlinField(seed),
		NoiseScale:     world.DefaultNoiseScale,
	}
}

// TickInterval возвращает длительность одного тика при частоте TickRate
func (o Options) TickInterval() time.Duration {
	if o.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(o.TickRate)
}

// Driver задаёт намерение наблюдателя перед проверкой столкновений (ввод, сценарий, гравитация)
type Driver func(obs *physics.Observer, dt float64)

// TickReport содержит итог одного тика
type TickReport struct {
	Generated int
	Meshed    int
	Deferred  int
	Plan      streaming.Plan
	Duration  time.Duration
}

// Stats содержит снимок состояния движка
type Stats struct {
	Ticks              uint64
	Loaded             int
	Generated          int
	RenderEntries      int
	PendingGenerations int
	PendingExtractions int
	ChunksGenerated    uint64
	MeshesExtracted    uint64
}

// Engine связывает хранилище, генератор, построитель сеток, стриминг и физику в цикл тиков
type Engine struct {
	opts Options

	Store      *world.ChunkStore
	Generator  *world.TerrainGenerator
	Extractor  *mesh.Extractor
	Controller *streaming.Controller
	Observer   *physics.Observer
	Driver     Driver

	pool     pond.Pool
	stopOnce sync.Once
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *logging.Logger

	ticks           atomic.Uint64
	chunksGenerated atomic.Uint64
	meshesExtracted atomic.Uint64
}

// New создаёт движок. Пул воркеров живёт до вызова Stop.
func New(opts Options, sink streaming.MeshSink, observer *physics.Observer) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 60
	}
	if opts.Noise == nil {
		opts.Noise = util.NewPerlinField(0)
	}

	store := world.NewChunkStore()
	return &Engine{
		opts:       opts,
		Store:      store,
		Generator:  world.NewTerrainGenerator(opts.Noise, opts.NoiseScale),
		Extractor:  mesh.NewExtractor(store),
		Controller: streaming.NewController(opts.Streaming, store, sink),
		Observer:   observer,
		pool:       pond.NewPool(opts.Workers),
		metrics:    metrics.New(opts.Registerer),
		tracer:     observability.Tracer(),
		logger:     logging.GetEngineLogger(),
	}
}

// Tick выполняет один шаг: генерация, построение сеток, стриминг, столкновения
func (e *Engine) Tick(ctx context.Context, dt float64) (TickReport, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "tick")
	defer span.End()

	var report TickReport

	generated, err := e.generatePhase(ctx)
	report.Generated = generated
	if err != nil {
		return report, err
	}

	report.Meshed, report.Deferred, err = e.extractPhase(ctx)
	if err != nil {
		return report, err
	}

	report.Plan = e.streamPhase(ctx)
	e.physicsPhase(ctx, dt)

	report.Duration = time.Since(start)
	n := e.ticks.Add(1)
	e.metrics.TickDuration.Observe(report.Duration.Seconds())
	e.metrics.ChunksLoaded.Set(float64(e.Store.Len()))
	e.metrics.RenderEntries.Set(float64(e.Controller.Len()))

	span.SetAttributes(
		attribute.Int64("tick", int64(n)),
		attribute.Int("generated", report.Generated),
		attribute.Int("meshed", report.Meshed),
	)
	return report, nil
}

// generatePhase заполняет ожидающие чанки параллельно и публикует их одной пачкой
func (e *Engine) generatePhase(ctx context.Context) (int, error) {
	ctx, span := e.tracer.Start(ctx, "tick.generate")
	defer span.End()

	pending := e.Controller.PendingGenerations()
	pending = pending[:e.limit(len(pending))]

	chunks, err := runBatches(ctx, e.pool, pending, e.opts.Workers, e.opts.WorkBudget, e.Generator.Fill)
	if err != nil {
		return 0, err
	}

	published := e.Store.Publish(chunks...)
	debug := e.logger.Enabled(logging.DEBUG)
	for _, chunk := range chunks {
		// Опубликован именно этот экземпляр, а не пропущен
		if current, ok := e.Store.Get(chunk.Key); !ok || current != chunk {
			continue
		}
		if debug {
			e.logger.Debug("Чанк %v опубликован, digest %016x", chunk.Key, chunk.Digest())
		}
		e.emit(ctx, eventbus.NewEvent(eventbus.ChunkGenerated, chunk.Key, e.ticks.Load()+1))
	}
	e.chunksGenerated.Add(uint64(published))
	e.metrics.ChunksGenerated.Add(float64(published))

	span.SetAttributes(attribute.Int("jobs", len(pending)), attribute.Int("published", published))
	return published, nil
}

// extractPhase строит готовые к построению сетки параллельно и передаёт их в приёмник
func (e *Engine) extractPhase(ctx context.Context) (int, int, error) {
	ctx, span := e.tracer.Start(ctx, "tick.extract")
	defer span.End()

	var ready []streaming.ExtractRequest
	deferred := 0
	for _, req := range e.Controller.PendingExtractions() {
		if !e.Extractor.Ready(req.Key) {
			deferred++
			continue
		}
		ready = append(ready, req)
	}
	ready = ready[:e.limit(len(ready))]

	meshes, err := runBatches(ctx, e.pool, ready, e.opts.Workers, e.opts.WorkBudget,
		func(req streaming.ExtractRequest) *mesh.Mesh {
			m, _ := e.Extractor.Extract(req.Key, req.LOD)
			return m
		})
	if err != nil {
		return 0, deferred, err
	}

	meshed := 0
	for _, m := range meshes {
		if e.Controller.CompleteExtraction(m) {
			meshed++
			ev := eventbus.NewEvent(eventbus.ChunkMeshed, m.Key, e.ticks.Load()+1)
			ev.LOD = m.LOD
			e.emit(ctx, ev)
		} else {
			deferred++
		}
	}

	e.meshesExtracted.Add(uint64(meshed))
	e.metrics.MeshesExtracted.Add(float64(meshed))
	e.metrics.MeshDeferred.Add(float64(deferred))

	span.SetAttributes(attribute.Int("jobs", len(ready)), attribute.Int("deferred", deferred))
	return meshed, deferred, nil
}

// streamPhase обновляет кольцо чанков вокруг наблюдателя
func (e *Engine) streamPhase(ctx context.Context) streaming.Plan {
	_, span := e.tracer.Start(ctx, "tick.stream")
	defer span.End()

	center := vec.Vec3{}
	if e.Observer != nil {
		center = streaming.ObserverChunk(e.Observer.Position)
	}
	plan := e.Controller.Update(center)

	e.metrics.RenderEvictions.Add(float64(len(plan.Evicted)))
	e.metrics.VoxelEvictions.Add(float64(len(plan.Dropped)))

	tick := e.ticks.Load() + 1
	for _, key := range plan.Evicted {
		e.emit(ctx, eventbus.NewEvent(eventbus.ChunkEvicted, key, tick))
	}
	for _, key := range plan.Dropped {
		e.emit(ctx, eventbus.NewEvent(eventbus.ChunkDropped, key, tick))
	}

	span.SetAttributes(
		attribute.Int("new_chunks", len(plan.Generate)),
		attribute.Int("evicted", len(plan.Evicted)),
		attribute.Int("dropped", len(plan.Dropped)),
	)
	return plan
}

// physicsPhase применяет намерение наблюдателя и разрешает столкновения
func (e *Engine) physicsPhase(ctx context.Context, dt float64) {
	if e.Observer == nil {
		return
	}
	_, span := e.tracer.Start(ctx, "tick.physics")
	defer span.End()

	if e.Driver != nil {
		e.Driver(e.Observer, dt)
	}
	e.Observer.Step(e.Store, dt)
}

// emit отправляет событие в шину, если она подключена
func (e *Engine) emit(ctx context.Context, ev *eventbus.Event) {
	if e.opts.Bus == nil {
		return
	}
	if err := e.opts.Bus.Publish(ctx, ev); err != nil {
		e.logger.Debug("Событие %s %v не отправлено: %v", ev.Type, ev.Key, err)
	}
}

// limit ограничивает количество задач на фазу
func (e *Engine) limit(n int) int {
	if e.opts.MaxJobsPerTick > 0 && n > e.opts.MaxJobsPerTick {
		return e.opts.MaxJobsPerTick
	}
	return n
}

// Run крутит тики с фиксированной частотой до отмены ctx или достижения MaxTicks
func (e *Engine) Run(ctx context.Context) error {
	interval := e.opts.TickInterval()
	dt := interval.Seconds()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("🌍 Цикл запущен: %d тиков/с, воркеров %d, радиус %d",
		e.opts.TickRate, e.opts.Workers, e.Controller.Config().RenderDistance)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report, err := e.Tick(ctx, dt)
			if err != nil {
				return err
			}
			n := e.ticks.Load()
			if n%uint64(e.opts.TickRate) == 0 {
				s := e.Stats()
				e.logger.Debug("Тик %d: загружено %d, сгенерировано %d, записей %d, тик %v",
					n, s.Loaded, s.Generated, s.RenderEntries, report.Duration)
			}
			if e.opts.MaxTicks > 0 && n >= uint64(e.opts.MaxTicks) {
				return nil
			}
		}
	}
}

// Stop останавливает пул воркеров, дожидаясь выполняющихся задач
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.pool.StopAndWait()
	})
}

// Stats возвращает снимок состояния
func (e *Engine) Stats() Stats {
	storeStats := e.Store.Stats()
	return Stats{
		Ticks:              e.ticks.Load(),
		Loaded:             storeStats.Loaded,
		Generated:          storeStats.Generated,
		RenderEntries:      e.Controller.Len(),
		PendingGenerations: len(e.Controller.PendingGenerations()),
		PendingExtractions: len(e.Controller.PendingExtractions()),
		ChunksGenerated:    e.chunksGenerated.Load(),
		MeshesExtracted:    e.meshesExtracted.Load(),
	}
}
