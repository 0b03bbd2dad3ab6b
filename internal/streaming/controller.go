package streaming

import (
	"sort"
	"sync"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

// Параметры стриминга по умолчанию
const (
	DefaultRenderDistance  = 8
	DefaultLODRange        = 3
	DefaultRetentionMargin = 2 // Запас радиуса хранения над радиусом отрисовки, если он не задан явно
)

// Config задаёт параметры кольца стриминга в чанках
type Config struct {
	RenderDistance    int `yaml:"render_distance"`    // Радиус отрисовки по горизонтали
	LODRange          int `yaml:"lod_range"`          // Ширина полосы одного уровня детализации
	RetentionDistance int `yaml:"retention_distance"` // Радиус, за которым выгружаются воксели; 0 = RenderDistance+2
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		RenderDistance: DefaultRenderDistance,
		LODRange:       DefaultLODRange,
	}
}

// Retention возвращает действующий радиус хранения вокселей
func (c Config) Retention() int {
	if c.RetentionDistance <= 0 {
		return c.RenderDistance + DefaultRetentionMargin
	}
	return c.RetentionDistance
}

// normalized подставляет безопасные значения вместо некорректных
func (c Config) normalized() Config {
	if c.RenderDistance < 0 {
		c.RenderDistance = 0
	}
	if c.LODRange <= 0 {
		c.LODRange = 1
	}
	c.RetentionDistance = c.Retention()
	if c.RetentionDistance < c.RenderDistance {
		c.RetentionDistance = c.RenderDistance
	}
	return c
}

// RequiredLOD вычисляет уровень детализации по смещению чанка от наблюдателя
func (c Config) RequiredLOD(dx, dz int) int {
	lodRange := c.LODRange
	if lodRange <= 0 {
		lodRange = 1
	}
	lod := vec.Abs(dx) / lodRange
	if l := vec.Abs(dz) / lodRange; l > lod {
		lod = l
	}
	return mesh.ClampLOD(lod)
}

// ChunkState описывает состояние ключа в конвейере стриминга
type ChunkState int

const (
	Unloaded ChunkState = iota
	Loaded
	Generated
	MeshPending
	Meshed
)

func (s ChunkState) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case Loaded:
		return "Loaded"
	case Generated:
		return "Generated"
	case MeshPending:
		return "MeshPending"
	case Meshed:
		return "Meshed"
	default:
		return "Unknown"
	}
}

// RenderEntry описывает отрисовываемый чанк.
// State хранит только состояние сетки: MeshPending или Meshed.
type RenderEntry struct {
	Key    vec.Vec3
	Handle Handle
	LOD    int
	State  ChunkState
}

// ExtractRequest запрашивает построение сетки
type ExtractRequest struct {
	Key vec.Vec3
	LOD int
}

// Plan содержит изменения, сделанные одним вызовом Update
type Plan struct {
	Generate []vec.Vec3       // Новые чанки, ожидающие генерации
	Extract  []ExtractRequest // Новые запросы на построение сетки (создание или смена LOD)
	Evicted  []vec.Vec3       // Записи отрисовки, удалённые за радиусом отрисовки
	Dropped  []vec.Vec3       // Воксельные данные, выгруженные за радиусом хранения
}

// Controller ведёт кольцо чанков вокруг наблюдателя
type Controller struct {
	cfg   Config
	store *world.ChunkStore
	sink  MeshSink

	entries  map[vec.Vec3]*RenderEntry
	observer vec.Vec3
	mu       sync.Mutex

	logger *logging.Logger
}

// NewController создаёт контроллер стриминга
func NewController(cfg Config, store *world.ChunkStore, sink MeshSink) *Controller {
	return &Controller{
		cfg:     cfg.normalized(),
		store:   store,
		sink:    sink,
		entries: make(map[vec.Vec3]*RenderEntry),
		logger:  logging.GetStreamingLogger(),
	}
}

// Config возвращает действующие параметры
func (c *Controller) Config() Config {
	return c.cfg
}

// ObserverChunk возвращает ключ чанка наблюдателя со сброшенной вертикалью
func ObserverChunk(pos mgl64.Vec3) vec.Vec3 {
	return world.ChunkKeyAt(pos).WithY(0)
}

// Update выполняет один шаг стриминга для чанка наблюдателя
func (c *Controller) Update(observerChunk vec.Vec3) Plan {
	center := observerChunk.WithY(0)
	r := c.cfg.RenderDistance

	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = center

	var plan Plan

	for dx := -r; dx <= r; dx++ {
		for y := 0; y < world.WorldHeight; y++ {
			for dz := -r; dz <= r; dz++ {
				key := vec.Vec3{X: center.X + dx, Y: y, Z: center.Z + dz}

				chunk, inserted := c.store.Load(key)
				if chunk == nil {
					continue
				}
				if inserted {
					plan.Generate = append(plan.Generate, key)
				}

				lod := c.cfg.RequiredLOD(dx, dz)

				if entry, exists := c.entries[key]; exists {
					if entry.LOD == lod {
						continue
					}
					entry.LOD = lod
					entry.State = MeshPending
					plan.Extract = append(plan.Extract, ExtractRequest{Key: key, LOD: lod})
					continue
				}

				c.entries[key] = &RenderEntry{
					Key:    key,
					Handle: c.sink.Create(key, world.ChunkOrigin(key)),
					LOD:    lod,
					State:  MeshPending,
				}
				plan.Extract = append(plan.Extract, ExtractRequest{Key: key, LOD: lod})
			}
		}
	}

	plan.Evicted = c.evictRenderEntries(center)
	plan.Dropped = c.dropVoxels(center)

	if len(plan.Evicted) > 0 || len(plan.Dropped) > 0 {
		c.logger.Debug("Наблюдатель в %v: удалено записей %d, выгружено чанков %d",
			center, len(plan.Evicted), len(plan.Dropped))
	}
	return plan
}

// evictRenderEntries удаляет записи за радиусом отрисовки (по каждой оси отдельно)
func (c *Controller) evictRenderEntries(center vec.Vec3) []vec.Vec3 {
	r := c.cfg.RenderDistance

	var evicted []vec.Vec3
	for key, entry := range c.entries {
		rel := key.Sub(center)
		if rel.X >= -r && rel.X <= r && rel.Z >= -r && rel.Z <= r && world.InWorldRange(key) {
			continue
		}
		c.sink.Destroy(entry.Handle)
		delete(c.entries, key)
		evicted = append(evicted, key)
	}
	sortKeys(evicted)
	return evicted
}

// dropVoxels выгружает воксели чанков без записи отрисовки за радиусом хранения
func (c *Controller) dropVoxels(center vec.Vec3) []vec.Vec3 {
	var dropped []vec.Vec3
	for _, key := range c.store.Keys() {
		if _, exists := c.entries[key]; exists {
			continue
		}
		if key.ChebyshevXZ(center) <= c.cfg.RetentionDistance {
			continue
		}
		if c.store.Remove(key) {
			dropped = append(dropped, key)
		}
	}
	return dropped
}

// PendingGenerations возвращает отрисовываемые чанки, ещё не прошедшие генерацию,
// ближайшие к наблюдателю первыми
func (c *Controller) PendingGenerations() []vec.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []vec.Vec3
	for key := range c.entries {
		if !c.store.IsGenerated(key) {
			keys = append(keys, key)
		}
	}
	c.sortByDistance(keys)
	return keys
}

// PendingExtractions возвращает запросы сеток в состоянии MeshPending, ближайшие первыми
func (c *Controller) PendingExtractions() []ExtractRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]vec.Vec3, 0, len(c.entries))
	for key, entry := range c.entries {
		if entry.State == MeshPending {
			keys = append(keys, key)
		}
	}
	c.sortByDistance(keys)

	requests := make([]ExtractRequest, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, ExtractRequest{Key: key, LOD: c.entries[key].LOD})
	}
	return requests
}

// CompleteExtraction передаёт готовую сетку в приёмник.
// Сетка отбрасывается (false), если запись уже удалена или LOD сменился после запроса.
func (c *Controller) CompleteExtraction(m *mesh.Mesh) bool {
	if m == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[m.Key]
	if !exists || entry.LOD != m.LOD || entry.State != MeshPending {
		return false
	}
	c.sink.Upload(entry.Handle, m)
	entry.State = Meshed
	return true
}

// Entry возвращает копию записи отрисовки
func (c *Controller) Entry(key vec.Vec3) (RenderEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return RenderEntry{}, false
	}
	return *entry, true
}

// State возвращает состояние ключа в конвейере
func (c *Controller) State(key vec.Vec3) ChunkState {
	c.mu.Lock()
	entry, exists := c.entries[key]
	var meshed bool
	if exists {
		meshed = entry.State == Meshed
	}
	c.mu.Unlock()

	switch {
	case meshed:
		return Meshed
	case !c.store.IsLoaded(key):
		return Unloaded
	case !c.store.IsGenerated(key):
		return Loaded
	case exists:
		return MeshPending
	default:
		return Generated
	}
}

// Entries возвращает копии всех записей, отсортированные по ключу
func (c *Controller) Entries() []RenderEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]RenderEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key.Less(entries[j].Key) })
	return entries
}

// Len возвращает количество записей отрисовки
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Controller) sortByDistance(keys []vec.Vec3) {
	center := c.observer
	sort.Slice(keys, func(i, j int) bool {
		di, dj := keys[i].ChebyshevXZ(center), keys[j].ChebyshevXZ(center)
		if di != dj {
			return di < dj
		}
		return keys[i].Less(keys[j])
	})
}

func sortKeys(keys []vec.Vec3) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
