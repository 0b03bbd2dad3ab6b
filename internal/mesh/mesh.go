package mesh

import (
	"math/bits"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxLOD максимальный уровень детализации, шаг 2^MaxLOD равен размеру чанка
var MaxLOD = bits.Len(uint(world.ChunkSize)) - 1

// Mesh содержит треугольную сетку чанка в локальных координатах чанка.
// Позиции, нормали и UV идут по 4 на каждую видимую грань, индексов по 6.
type Mesh struct {
	Key vec.Vec3
	LOD int

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// QuadCount возвращает количество граней в сетке
func (m *Mesh) QuadCount() int {
	return len(m.Positions) / 4
}

// VertexCount возвращает количество вершин
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// IsEmpty возвращает true, если в сетке нет ни одной грани
func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// ClampLOD приводит уровень детализации к диапазону [0, MaxLOD]
func ClampLOD(lod int) int {
	if lod < 0 {
		return 0
	}
	if lod > MaxLOD {
		return MaxLOD
	}
	return lod
}

// Stride возвращает шаг выборки по X и Z для уровня детализации
func Stride(lod int) int {
	return 1 << ClampLOD(lod)
}
