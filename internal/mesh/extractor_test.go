package mesh

import (
	"testing"

	"github.com/annel0/voxel-world/internal/util"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var center = vec.Vec3{X: 0, Y: 2, Z: 0}

// newNeighborhood загружает и публикует чанк center и всех его соседей.
// Если fill возвращает nil, чанк состоит из воздуха.
func newNeighborhood(fill func(key vec.Vec3) *world.Blocks) *world.ChunkStore {
	store := world.NewChunkStore()
	keys := append(world.AdjacentKeys(center), center)
	for _, key := range keys {
		store.Load(key)
		store.Publish(world.NewGeneratedChunk(key, fill(key)))
	}
	return store
}

func withVoxels(target vec.Vec3, id block.BlockID, locals ...vec.Vec3) func(vec.Vec3) *world.Blocks {
	return func(key vec.Vec3) *world.Blocks {
		if key != target {
			return nil
		}
		var blocks world.Blocks
		for _, l := range locals {
			blocks[l.Z][l.Y][l.X] = id
		}
		return &blocks
	}
}

func TestExtractIsolatedVoxel(t *testing.T) {
	store := newNeighborhood(withVoxels(center, block.StoneBlockID, vec.Vec3{X: 5, Y: 5, Z: 5}))
	m, ok := NewExtractor(store).Extract(center, 0)
	require.True(t, ok)

	assert.Equal(t, 6, m.QuadCount())
	assert.Equal(t, 24, m.VertexCount())
	assert.Len(t, m.Normals, 24)
	assert.Len(t, m.UVs, 24)
	assert.Len(t, m.Indices, 36)
	assert.Equal(t, []uint32{2, 1, 0, 0, 3, 2}, m.Indices[:6], "Порядок индексов грани")

	// Первая грань Top, вершины на y = 6
	for i := 0; i < 4; i++ {
		assert.Equal(t, float32(6), m.Positions[i].Y())
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, m.Normals[i])
	}
	assert.Equal(t, mgl32.Vec3{6, 6, 5}, m.Positions[0])
}

func TestExtractStackedVoxels(t *testing.T) {
	store := newNeighborhood(withVoxels(center, block.DirtBlockID,
		vec.Vec3{X: 3, Y: 7, Z: 3},
		vec.Vec3{X: 3, Y: 8, Z: 3},
	))
	m, ok := NewExtractor(store).Extract(center, 0)
	require.True(t, ok)
	assert.Equal(t, 10, m.QuadCount(), "Общая грань между вокселями скрыта")
}

func TestExtractCullsAcrossChunkBoundary(t *testing.T) {
	east := center.Add(vec.Vec3{X: 1})
	store := newNeighborhood(func(key vec.Vec3) *world.Blocks {
		var blocks world.Blocks
		switch key {
		case center:
			blocks[0][0][15] = block.StoneBlockID
		case east:
			blocks[0][0][0] = block.StoneBlockID
		default:
			return nil
		}
		return &blocks
	})

	m, ok := NewExtractor(store).Extract(center, 0)
	require.True(t, ok)
	// Нижний и южный сосед находятся в других чанках из воздуха, восточный из камня
	assert.Equal(t, 5, m.QuadCount())
	for _, n := range m.Normals {
		assert.NotEqual(t, mgl32.Vec3{1, 0, 0}, n, "Восточная грань должна быть скрыта")
	}
}

func TestExtractAdjacencyGate(t *testing.T) {
	store := newNeighborhood(withVoxels(center, block.StoneBlockID, vec.Vec3{}))
	missing := center.Add(vec.Vec3{X: 1, Y: 1, Z: -1})
	store.Remove(missing)

	e := NewExtractor(store)
	assert.False(t, e.Ready(center))
	m, ok := e.Extract(center, 0)
	assert.False(t, ok, "Без соседа сетка не строится")
	assert.Nil(t, m)

	// Загруженный, но не сгенерированный сосед тоже блокирует построение
	store.Load(missing)
	_, ok = e.Extract(center, 0)
	assert.False(t, ok)

	store.Publish(world.NewGeneratedChunk(missing, nil))
	_, ok = e.Extract(center, 0)
	assert.True(t, ok)

	_, ok = e.Extract(vec.Vec3{X: 50, Y: 2}, 0)
	assert.False(t, ok, "Незагруженный чанк")
}

// generateAround генерирует чанк key и всех его соседей
func generateAround(gen *world.TerrainGenerator, key vec.Vec3) *world.ChunkStore {
	store := world.NewChunkStore()
	for _, k := range append(world.AdjacentKeys(key), key) {
		store.Load(k)
		gen.Generate(store, k)
	}
	return store
}

// quadsPerLOD возвращает количество граней сетки key для каждого уровня детализации
func quadsPerLOD(t *testing.T, e *Extractor, key vec.Vec3) []int {
	t.Helper()
	quads := make([]int, 0, MaxLOD+1)
	for lod := 0; lod <= MaxLOD; lod++ {
		m, ok := e.Extract(key, lod)
		require.True(t, ok)
		quads = append(quads, m.QuadCount())
	}
	return quads
}

func assertNonIncreasing(t *testing.T, quads []int) {
	t.Helper()
	for lod := 1; lod < len(quads); lod++ {
		assert.LessOrEqual(t, quads[lod], quads[lod-1], "LOD %d даёт больше граней, чем LOD %d: %v", lod, lod-1, quads)
	}
}

func TestExtractLODOnFlatTerrain(t *testing.T) {
	// Плоский мир: поверхность на y = 64, то есть в нижнем слое чанков Y = 4
	gen := world.NewTerrainGenerator(util.ConstantField(0), 32)
	surface := vec.Vec3{X: 0, Y: 4, Z: 0}
	store := generateAround(gen, surface)

	e := NewExtractor(store)
	previous := -1
	for lod := 0; lod <= MaxLOD; lod++ {
		m, ok := e.Extract(surface, lod)
		require.True(t, ok)

		columns := world.ChunkSize / Stride(lod)
		assert.Equal(t, columns*columns, m.QuadCount(), "LOD %d", lod)
		assert.Equal(t, lod, m.LOD)
		if previous >= 0 {
			assert.Less(t, m.QuadCount(), previous, "Грубый LOD не должен давать больше граней")
		}
		previous = m.QuadCount()
	}

	m, _ := e.Extract(surface, 2)
	assert.Equal(t, mgl32.Vec3{4, 1, 0}, m.Positions[0], "Грань растянута на шаг 4 по X и Z")
}

func TestExtractLODBuriedChunk(t *testing.T) {
	// Чанк Y = 3 целиком под поверхностью: ни на одном LOD у него нет видимых граней
	gen := world.NewTerrainGenerator(util.ConstantField(0), 32)
	buried := vec.Vec3{X: 0, Y: 3, Z: 0}
	e := NewExtractor(generateAround(gen, buried))

	quads := quadsPerLOD(t, e, buried)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, quads)
}

func TestExtractLODOnNoiseTerrain(t *testing.T) {
	gen := world.NewTerrainGenerator(util.NewPerlinField(102), world.DefaultNoiseScale)
	// Столбец в углу чанка (3, ?, -2) входит в сетку любого LOD
	h := gen.SurfaceHeight(48, -32)
	key := vec.Vec3{X: 3, Y: vec.FloorDiv(h, world.ChunkSize), Z: -2}
	require.True(t, world.InWorldRange(key))

	e := NewExtractor(generateAround(gen, key))
	quads := quadsPerLOD(t, e, key)
	assertNonIncreasing(t, quads)
	assert.Greater(t, quads[MaxLOD], 0, "Угловой столбец виден на любом LOD")

	// Для зарытых чанков под поверхностью граней не прибавляется
	if key.Y > 0 {
		below := key.WithY(key.Y - 1)
		e = NewExtractor(generateAround(gen, below))
		assertNonIncreasing(t, quadsPerLOD(t, e, below))
	}
}

func TestExtractUVs(t *testing.T) {
	store := newNeighborhood(withVoxels(center, block.GrassBlockID, vec.Vec3{X: 1, Y: 1, Z: 1}))
	m, ok := NewExtractor(store).Extract(center, 0)
	require.True(t, ok)

	top, _ := block.DefaultAtlas.UVs(block.GrassBlockID, block.FaceTop)
	assert.Equal(t, top[:], m.UVs[:4])
}

func TestClampLOD(t *testing.T) {
	assert.Equal(t, 4, MaxLOD)
	assert.Equal(t, 0, ClampLOD(-3))
	assert.Equal(t, MaxLOD, ClampLOD(10))
	assert.Equal(t, 16, Stride(7))
	assert.Equal(t, 2, Stride(1))
}

func TestEmptyMesh(t *testing.T) {
	store := newNeighborhood(func(vec.Vec3) *world.Blocks { return nil })
	m, ok := NewExtractor(store).Extract(center, 3)
	require.True(t, ok)
	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.QuadCount())
}
