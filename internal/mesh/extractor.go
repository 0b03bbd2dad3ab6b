package mesh

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// VoxelSource предоставляет воксели для построения сетки (обычно *world.ChunkStore)
type VoxelSource interface {
	Get(key vec.Vec3) (*world.Chunk, bool)
	IsGenerated(key vec.Vec3) bool
	Resolve(key, offset vec.Vec3) (block.BlockID, bool)
}

// faceCorners хранит смещения углов грани относительно центра вокселя
var faceCorners = [6][4]mgl32.Vec3{
	block.FaceTop: {
		{0.5, 0.5, -0.5},
		{0.5, 0.5, 0.5},
		{-0.5, 0.5, 0.5},
		{-0.5, 0.5, -0.5},
	},
	block.FaceBottom: {
		{0.5, -0.5, 0.5},
		{0.5, -0.5, -0.5},
		{-0.5, -0.5, -0.5},
		{-0.5, -0.5, 0.5},
	},
	block.FaceEast: {
		{0.5, 0.5, 0.5},
		{0.5, 0.5, -0.5},
		{0.5, -0.5, -0.5},
		{0.5, -0.5, 0.5},
	},
	block.FaceWest: {
		{-0.5, -0.5, 0.5},
		{-0.5, -0.5, -0.5},
		{-0.5, 0.5, -0.5},
		{-0.5, 0.5, 0.5},
	},
	block.FaceNorth: {
		{-0.5, 0.5, 0.5},
		{0.5, 0.5, 0.5},
		{0.5, -0.5, 0.5},
		{-0.5, -0.5, 0.5},
	},
	block.FaceSouth: {
		{-0.5, -0.5, -0.5},
		{0.5, -0.5, -0.5},
		{0.5, 0.5, -0.5},
		{-0.5, 0.5, -0.5},
	},
}

// Extractor строит сетки чанков по данным хранилища.
// Extract только читает хранилище, поэтому может выполняться параллельно для разных чанков.
type Extractor struct {
	Source VoxelSource
	Atlas  block.Atlas
}

// NewExtractor создаёт экстрактор с атласом по умолчанию
func NewExtractor(source VoxelSource) *Extractor {
	return &Extractor{
		Source: source,
		Atlas:  block.DefaultAtlas,
	}
}

// Ready проверяет, что чанк и все его 26 соседей сгенерированы
func (e *Extractor) Ready(key vec.Vec3) bool {
	if !e.Source.IsGenerated(key) {
		return false
	}
	for _, neighbor := range world.AdjacentKeys(key) {
		if !e.Source.IsGenerated(neighbor) {
			return false
		}
	}
	return true
}

// Extract строит сетку чанка с указанным уровнем детализации.
// Возвращает false, если чанк или кто-то из соседей ещё не сгенерирован; вызов можно повторить позже.
func (e *Extractor) Extract(key vec.Vec3, lod int) (*Mesh, bool) {
	if !e.Ready(key) {
		return nil, false
	}
	chunk, exists := e.Source.Get(key)
	if !exists {
		return nil, false
	}

	lod = ClampLOD(lod)
	stride := Stride(lod)
	m := &Mesh{Key: key, LOD: lod}

	for x := 0; x < world.ChunkSize; x += stride {
		for z := 0; z < world.ChunkSize; z += stride {
			for y := 0; y < world.ChunkSize; y++ {
				local := vec.Vec3{X: x, Y: y, Z: z}
				id := chunk.Block(local)
				if id.IsTransparent() {
					continue
				}
				for _, face := range block.AllFaces {
					e.addFace(m, key, id, local, face, stride)
				}
			}
		}
	}

	return m, true
}

// addFace добавляет грань, если соседний воксель в направлении нормали не сплошной
func (e *Extractor) addFace(m *Mesh, key vec.Vec3, id block.BlockID, local vec.Vec3, face block.Face, stride int) {
	// Шаг LOD действует только по X и Z, по вертикали сосед всегда соседний воксель.
	// Сосед, которого нет в хранилище, считается воздухом.
	n := face.Normal()
	offset := vec.Vec3{X: n.X * stride, Y: n.Y, Z: n.Z * stride}
	neighbor, _ := e.Source.Resolve(key, local.Add(offset))
	if neighbor.IsFull() {
		return
	}

	idx := uint32(len(m.Positions))
	scale := mgl32.Vec3{float32(stride), 1, float32(stride)}
	center := mgl32.Vec3{float32(local.X), float32(local.Y), float32(local.Z)}.
		Add(mulElem(mgl32.Vec3{0.5, 0.5, 0.5}, scale))

	normal := face.NormalVec()
	for _, corner := range faceCorners[face] {
		m.Positions = append(m.Positions, center.Add(mulElem(corner, scale)))
		m.Normals = append(m.Normals, normal)
	}

	uvs := e.Atlas.UVsOrFallback(id, face)
	m.UVs = append(m.UVs, uvs[:]...)
	m.Indices = append(m.Indices, idx+2, idx+1, idx, idx, idx+3, idx+2)
}

func mulElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
