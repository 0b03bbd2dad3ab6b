package world

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/cespare/xxhash/v2"
)

const (
	// ChunkSize длина ребра чанка в вокселях
	ChunkSize = 16
	// WorldHeight количество чанков по вертикали
	WorldHeight = 128 / ChunkSize
	// ChunkVolume количество вокселей в чанке
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// Blocks плотный массив вокселей чанка, индексируется как [z][y][x]
type Blocks [ChunkSize][ChunkSize][ChunkSize]block.BlockID

// Chunk представляет участок мира размером 16x16x16 вокселей.
//
// Чанк неизменяем после создания: незаполненный чанк (generated == false) читается
// как сплошной воздух, а заполненный публикуется в ChunkStore заменой записи целиком.
// Поэтому читатели никогда не видят частично записанный массив.
type Chunk struct {
	Key vec.Vec3 // Координаты чанка в сетке чанков

	blocks    Blocks
	generated bool
}

// NewChunk создаёт пустой (не сгенерированный) чанк с указанными координатами
func NewChunk(key vec.Vec3) *Chunk {
	return &Chunk{Key: key}
}

// NewGeneratedChunk создаёт заполненный чанк из готового массива вокселей
func NewGeneratedChunk(key vec.Vec3, blocks *Blocks) *Chunk {
	c := &Chunk{Key: key, generated: true}
	if blocks != nil {
		c.blocks = *blocks
	}
	return c
}

// IsGenerated возвращает true, если содержимое чанка заполнено генератором
func (c *Chunk) IsGenerated() bool {
	return c.generated
}

// Block возвращает воксель по локальным координатам без проверки границ
func (c *Chunk) Block(local vec.Vec3) block.BlockID {
	return c.blocks[local.Z][local.Y][local.X]
}

// BlockAt возвращает воксель по локальным координатам; false, если координаты вне чанка
func (c *Chunk) BlockAt(local vec.Vec3) (block.BlockID, bool) {
	if !InChunkBounds(local) {
		return block.AirBlockID, false
	}
	return c.Block(local), true
}

// CountBlocks считает воксели указанного вида
func (c *Chunk) CountBlocks(id block.BlockID) int {
	count := 0
	for z := range c.blocks {
		for y := range c.blocks[z] {
			for x := range c.blocks[z][y] {
				if c.blocks[z][y][x] == id {
					count++
				}
			}
		}
	}
	return count
}

// Digest возвращает хеш содержимого чанка (xxhash) вместе с флагом генерации
func (c *Chunk) Digest() uint64 {
	buf := make([]byte, 0, ChunkVolume+1)
	if c.generated {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	for z := range c.blocks {
		for y := range c.blocks[z] {
			for x := range c.blocks[z][y] {
				buf = append(buf, byte(c.blocks[z][y][x]))
			}
		}
	}
	return xxhash.Sum64(buf)
}

// WorldOrigin возвращает мировую позицию минимального угла чанка (key * ChunkSize)
func (c *Chunk) WorldOrigin() vec.Vec3 {
	return ChunkOrigin(c.Key)
}

// ChunkOrigin возвращает мировую позицию минимального угла чанка с указанным ключом
func ChunkOrigin(key vec.Vec3) vec.Vec3 {
	return key.Scale(ChunkSize)
}

// InChunkBounds проверяет, что локальные координаты лежат внутри чанка
func InChunkBounds(local vec.Vec3) bool {
	return local.X >= 0 && local.X < ChunkSize &&
		local.Y >= 0 && local.Y < ChunkSize &&
		local.Z >= 0 && local.Z < ChunkSize
}
