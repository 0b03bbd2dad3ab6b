package block

import "github.com/annel0/voxel-world/internal/vec"

// BlockID представляет идентификатор блока
type BlockID uint8

// Константы ID блоков. Air обязан быть нулевым значением:
// незаполненный массив чанка читается как воздух.
const (
	AirBlockID   BlockID = iota // 0
	GrassBlockID                // 1
	DirtBlockID                 // 2
	StoneBlockID                // 3

	blockCount // всегда последний
)

// Properties описывает статические свойства вида блока
type Properties struct {
	Name        string
	Transparent bool // сквозь блок видны соседние грани
	Full        bool // блок твёрдый и закрывает соседние грани
	// Tiles[face] клетка атласа для грани; HasTile[face] == false означает заглушку
	Tiles   [faceCount]vec.Vec2
	HasTile [faceCount]bool
}

// Tile возвращает клетку атласа для указанной грани
func (p Properties) Tile(face Face) (vec.Vec2, bool) {
	if face >= faceCount {
		return vec.Vec2{}, false
	}
	return p.Tiles[face], p.HasTile[face]
}

// registry хранит таблицу свойств по ID, без ветвлений на каждый вызов
var registry = [blockCount]Properties{
	AirBlockID: {
		Name:        "Air",
		Transparent: true,
		Full:        false,
	},
	GrassBlockID: withTiles(Properties{Name: "Grass", Full: true}, func(f Face) vec.Vec2 {
		switch {
		case f == FaceTop:
			return vec.Vec2{X: 0, Y: 1}
		case f.IsSide():
			return vec.Vec2{X: 0, Y: 0}
		default:
			return vec.Vec2{X: 1, Y: 0} // низ как у земли
		}
	}),
	DirtBlockID: withTiles(Properties{Name: "Dirt", Full: true}, func(Face) vec.Vec2 {
		return vec.Vec2{X: 1, Y: 0}
	}),
	StoneBlockID: withTiles(Properties{Name: "Stone", Full: true}, func(Face) vec.Vec2 {
		return vec.Vec2{X: 2, Y: 0}
	}),
}

func withTiles(p Properties, tile func(Face) vec.Vec2) Properties {
	for _, f := range AllFaces {
		p.Tiles[f] = tile(f)
		p.HasTile[f] = true
	}
	return p
}

// Get возвращает свойства для указанного ID
func Get(id BlockID) (Properties, bool) {
	if !IsValidBlockID(id) {
		return Properties{}, false
	}
	return registry[id], true
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	return id < blockCount
}

// IsTransparent возвращает true для прозрачных блоков. Неизвестные ID считаются прозрачными.
func (id BlockID) IsTransparent() bool {
	if !IsValidBlockID(id) {
		return true
	}
	return registry[id].Transparent
}

// IsFull возвращает true для твёрдых блоков
func (id BlockID) IsFull() bool {
	if !IsValidBlockID(id) {
		return false
	}
	return registry[id].Full
}

// String возвращает имя блока
func (id BlockID) String() string {
	if !IsValidBlockID(id) {
		return "Unknown"
	}
	return registry[id].Name
}

// AtlasTile возвращает клетку атласа для блока и грани
func AtlasTile(id BlockID, face Face) (vec.Vec2, bool) {
	p, ok := Get(id)
	if !ok {
		return vec.Vec2{}, false
	}
	return p.Tile(face)
}

// All возвращает все известные ID блоков
func All() []BlockID {
	ids := make([]BlockID, 0, blockCount)
	for id := BlockID(0); id < blockCount; id++ {
		ids = append(ids, id)
	}
	return ids
}
