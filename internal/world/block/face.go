package block

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// Face обозначает одну из шести граней вокселя
type Face uint8

const (
	FaceTop Face = iota
	FaceBottom
	FaceEast
	FaceWest
	FaceNorth
	FaceSouth

	faceCount
)

// AllFaces перечисляет грани в порядке обхода при построении меша
var AllFaces = [faceCount]Face{FaceTop, FaceBottom, FaceEast, FaceWest, FaceNorth, FaceSouth}

var faceNormals = [faceCount]vec.Vec3{
	FaceTop:    {Y: 1},
	FaceBottom: {Y: -1},
	FaceEast:   {X: 1},
	FaceWest:   {X: -1},
	FaceNorth:  {Z: 1},
	FaceSouth:  {Z: -1},
}

var faceNames = [faceCount]string{"Top", "Bottom", "East", "West", "North", "South"}

// Normal возвращает внешнюю нормаль грани
func (f Face) Normal() vec.Vec3 {
	return faceNormals[f]
}

// NormalVec возвращает нормаль как float-вектор для вершинного буфера
func (f Face) NormalVec() mgl32.Vec3 {
	n := faceNormals[f]
	return mgl32.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}
}

// IsVertical возвращает true для верха и низа
func (f Face) IsVertical() bool {
	return f == FaceTop || f == FaceBottom
}

// IsSide возвращает true для четырёх боковых граней
func (f Face) IsSide() bool {
	return f >= FaceEast && f <= FaceSouth
}

func (f Face) String() string {
	if f >= faceCount {
		return "Unknown"
	}
	return faceNames[f]
}
