package physics

import (
	"math"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// BlockSource отвечает на запросы вокселей по глобальным координатам (обычно *world.ChunkStore).
// false означает, что чанк не загружен или не сгенерирован.
type BlockSource interface {
	BlockAtGlobal(pos vec.Vec3) (block.BlockID, bool)
}

// ProbeDirections задаёт порядок проверок: сначала отдельные оси, затем диагональные пары,
// которые ловят касание только углом
var ProbeDirections = [6]mgl64.Vec3{
	{1, 0, 0},
	{0, 0, 1},
	{0, 1, 0},
	{1, 0, 1},
	{1, 1, 0},
	{0, 1, 1},
}

// FreeMask маска скорости, в которой все оси свободны
var FreeMask = mgl64.Vec3{1, 1, 1}

// AABB ограничивающий параллелепипед, выровненный по осям
type AABB struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
}

// Min возвращает минимальный угол
func (b AABB) Min() mgl64.Vec3 {
	return b.Center.Sub(b.HalfExtents)
}

// Max возвращает максимальный угол
func (b AABB) Max() mgl64.Vec3 {
	return b.Center.Add(b.HalfExtents)
}

// Translate возвращает копию, сдвинутую на offset
func (b AABB) Translate(offset mgl64.Vec3) AABB {
	b.Center = b.Center.Add(offset)
	return b
}

// Corners возвращает 8 углов параллелепипеда
func (b AABB) Corners() [8]mgl64.Vec3 {
	var corners [8]mgl64.Vec3
	for i := range corners {
		offset := b.HalfExtents
		if i&1 == 0 {
			offset[0] = -offset[0]
		}
		if i&2 == 0 {
			offset[1] = -offset[1]
		}
		if i&4 == 0 {
			offset[2] = -offset[2]
		}
		corners[i] = b.Center.Add(offset)
	}
	return corners
}

// Resolve корректирует скорость так, чтобы за шаг dt углы box не вошли в сплошные воксели.
// Возвращает исправленную скорость и маску свободных осей (1 = свободна, 0 = заблокирована).
//
// Проверка дискретная: при скорости больше одного вокселя за шаг тонкая стена,
// не попавшая ни под один угол, может быть пройдена насквозь.
func Resolve(src BlockSource, box AABB, velocity mgl64.Vec3, dt float64) (mgl64.Vec3, mgl64.Vec3) {
	mask := FreeMask
	corners := box.Corners()

	for _, dir := range ProbeDirections {
		step := mulElem(velocity, dir).Mul(dt)
		if !blocked(src, corners, step) {
			continue
		}
		velocity = velocity.Sub(mulElem(velocity, dir))
		mask = mulElem(mask, FreeMask.Sub(dir))
	}

	return velocity, mask
}

// blocked проверяет, попадает ли хотя бы один сдвинутый угол в сплошной или неизвестный воксель
func blocked(src BlockSource, corners [8]mgl64.Vec3, step mgl64.Vec3) bool {
	for _, corner := range corners {
		id, ok := src.BlockAtGlobal(voxelOf(corner.Add(step)))
		// Незагруженное пространство считается сплошным
		if !ok || id.IsFull() {
			return true
		}
	}
	return false
}

func voxelOf(p mgl64.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: int(math.Floor(p.X())),
		Y: int(math.Floor(p.Y())),
		Z: int(math.Floor(p.Z())),
	}
}

func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
