package world

import (
	"math"

	"github.com/annel0/voxel-world/internal/util"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Константы генерации ландшафта
const (
	DefaultNoiseScale = 32.0 // Горизонтальный масштаб шума по умолчанию
	DirtDepth         = 3    // Толщина слоя земли под поверхностью (включая траву)
)

// TerrainGenerator заполняет чанки по карте высот из шума.
// Генератор не имеет изменяемого состояния, поэтому Fill безопасно вызывать из нескольких горутин.
type TerrainGenerator struct {
	Noise util.NoiseField // Источник шума высот
	Scale float64         // Масштаб шума по горизонтали
}

// NewTerrainGenerator создаёт генератор; неположительный масштаб заменяется значением по умолчанию
func NewTerrainGenerator(noise util.NoiseField, scale float64) *TerrainGenerator {
	if scale <= 0 {
		scale = DefaultNoiseScale
	}
	return &TerrainGenerator{
		Noise: noise,
		Scale: scale,
	}
}

// SurfaceHeight возвращает мировую высоту поверхности в колонке (x, z)
func (g *TerrainGenerator) SurfaceHeight(worldX, worldZ int) int {
	n := g.Noise.Sample(float64(worldX)/g.Scale, 0, float64(worldZ)/g.Scale)
	return floorInt((n/2 + 0.5) * ChunkSize * WorldHeight)
}

// Classify определяет вид вокселя на мировой высоте yReal при высоте поверхности h
func Classify(yReal, h int) block.BlockID {
	switch {
	case yReal > h:
		return block.AirBlockID
	case yReal == h:
		return block.GrassBlockID
	case yReal > h-DirtDepth:
		return block.DirtBlockID
	default:
		return block.StoneBlockID
	}
}

// Fill строит сгенерированный чанк для ключа, не трогая хранилище
func (g *TerrainGenerator) Fill(key vec.Vec3) *Chunk {
	var blocks Blocks
	origin := ChunkOrigin(key)

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			h := g.SurfaceHeight(origin.X+x, origin.Z+z)
			for y := 0; y < ChunkSize; y++ {
				blocks[z][y][x] = Classify(origin.Y+y, h)
			}
		}
	}

	return NewGeneratedChunk(key, &blocks)
}

// Generate заполняет загруженный чанк и публикует его в хранилище.
// Возвращает false, если чанк не загружен или уже сгенерирован.
func (g *TerrainGenerator) Generate(store *ChunkStore, key vec.Vec3) bool {
	chunk, exists := store.Get(key)
	if !exists || chunk.IsGenerated() {
		return false
	}
	return store.Publish(g.Fill(key)) == 1
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}

// ColumnHeight возвращает высоту поверхности в столбце глобальной позиции pos
func (g *TerrainGenerator) ColumnHeight(pos vec.Vec3) int {
	return g.SurfaceHeight(pos.X, pos.Z)
}
