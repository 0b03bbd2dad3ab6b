package block

import "github.com/go-gl/mathgl/mgl32"

// Atlas описывает текстурный атлас: размер клетки и размер всей текстуры в пикселях
type Atlas struct {
	TileSize float32
	Size     float32
}

// DefaultAtlas атлас 256x256 с клетками 16x16
var DefaultAtlas = Atlas{TileSize: 16, Size: 256}

// FallbackUVs указывают на текстуру-заглушку, когда у блока нет клетки для грани
var FallbackUVs = [4]mgl32.Vec2{{1, 1}, {1, 1}, {1, 1}, {1, 1}}

// UVs возвращает четыре угла клетки атласа для блока и грани.
// Для West и South порядок обратный: касательный базис этих граней зеркален East/North.
func (a Atlas) UVs(id BlockID, face Face) ([4]mgl32.Vec2, bool) {
	tile, ok := AtlasTile(id, face)
	if !ok {
		return FallbackUVs, false
	}

	uv0 := mgl32.Vec2{
		float32(tile.X) * a.TileSize / a.Size,
		float32(tile.Y) * a.TileSize / a.Size,
	}
	// -1 пиксель, чтобы не захватывать соседнюю клетку при фильтрации
	uv1 := mgl32.Vec2{
		(float32(tile.X+1)*a.TileSize - 1) / a.Size,
		(float32(tile.Y+1)*a.TileSize - 1) / a.Size,
	}

	uvs := [4]mgl32.Vec2{uv0, {uv1.X(), uv0.Y()}, uv1, {uv0.X(), uv1.Y()}}
	if face == FaceWest || face == FaceSouth {
		uvs[0], uvs[1], uvs[2], uvs[3] = uvs[3], uvs[2], uvs[1], uvs[0]
	}
	return uvs, true
}

// UVsOrFallback как UVs, но всегда возвращает пригодные координаты
func (a Atlas) UVsOrFallback(id BlockID, face Face) [4]mgl32.Vec2 {
	uvs, _ := a.UVs(id, face)
	return uvs
}
