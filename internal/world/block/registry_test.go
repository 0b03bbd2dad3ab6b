package block

import (
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockProperties(t *testing.T) {
	assert.Equal(t, BlockID(0), AirBlockID, "Air должен быть нулевым значением")

	assert.True(t, AirBlockID.IsTransparent())
	assert.False(t, AirBlockID.IsFull())

	for _, id := range []BlockID{GrassBlockID, DirtBlockID, StoneBlockID} {
		assert.False(t, id.IsTransparent(), "%s не должен быть прозрачным", id)
		assert.True(t, id.IsFull(), "%s должен быть твёрдым", id)
	}

	unknown := BlockID(200)
	assert.False(t, IsValidBlockID(unknown))
	assert.True(t, unknown.IsTransparent())
	assert.False(t, unknown.IsFull())
	assert.Equal(t, "Unknown", unknown.String())
	assert.Len(t, All(), 4)
}

func TestAtlasTiles(t *testing.T) {
	cases := []struct {
		id   BlockID
		face Face
		tile vec.Vec2
	}{
		{GrassBlockID, FaceTop, vec.Vec2{X: 0, Y: 1}},
		{GrassBlockID, FaceEast, vec.Vec2{X: 0, Y: 0}},
		{GrassBlockID, FaceSouth, vec.Vec2{X: 0, Y: 0}},
		{GrassBlockID, FaceBottom, vec.Vec2{X: 1, Y: 0}},
		{DirtBlockID, FaceTop, vec.Vec2{X: 1, Y: 0}},
		{StoneBlockID, FaceNorth, vec.Vec2{X: 2, Y: 0}},
	}

	for _, c := range cases {
		tile, ok := AtlasTile(c.id, c.face)
		require.True(t, ok, "%s/%s должен иметь клетку атласа", c.id, c.face)
		assert.Equal(t, c.tile, tile, "%s/%s", c.id, c.face)
	}

	_, ok := AtlasTile(AirBlockID, FaceTop)
	assert.False(t, ok, "у воздуха нет клетки атласа")
}

func TestAtlasUVs(t *testing.T) {
	uvs, ok := DefaultAtlas.UVs(StoneBlockID, FaceEast)
	require.True(t, ok)

	uv0 := mgl32.Vec2{32.0 / 256, 0}
	uv1 := mgl32.Vec2{47.0 / 256, 15.0 / 256}
	assert.Equal(t, [4]mgl32.Vec2{uv0, {uv1.X(), uv0.Y()}, uv1, {uv0.X(), uv1.Y()}}, uvs)

	// West и South перечисляются в обратном порядке
	west, ok := DefaultAtlas.UVs(StoneBlockID, FaceWest)
	require.True(t, ok)
	assert.Equal(t, [4]mgl32.Vec2{uvs[3], uvs[2], uvs[1], uvs[0]}, west)

	south, _ := DefaultAtlas.UVs(StoneBlockID, FaceSouth)
	assert.Equal(t, west, south)

	north, _ := DefaultAtlas.UVs(StoneBlockID, FaceNorth)
	assert.Equal(t, uvs, north)
}

func TestAtlasFallback(t *testing.T) {
	uvs, ok := DefaultAtlas.UVs(AirBlockID, FaceTop)
	assert.False(t, ok)
	assert.Equal(t, FallbackUVs, uvs)
	assert.Equal(t, FallbackUVs, DefaultAtlas.UVsOrFallback(BlockID(99), FaceBottom))
}

func TestFaces(t *testing.T) {
	sum := vec.Vec3{}
	for _, f := range AllFaces {
		n := f.Normal()
		assert.Equal(t, 1, vec.Abs(n.X)+vec.Abs(n.Y)+vec.Abs(n.Z), "нормаль %s должна быть единичной", f)
		assert.NotEqual(t, f.IsVertical(), f.IsSide(), "грань %s либо вертикальная, либо боковая", f)
		sum = sum.Add(n)
	}
	assert.Equal(t, vec.Vec3{}, sum, "нормали противоположных граней компенсируют друг друга")
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, FaceSouth.NormalVec())
	assert.Equal(t, "West", FaceWest.String())
}
