package world

import (
	"sync"
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStore_GetBeforeLoad(t *testing.T) {
	store := NewChunkStore()

	_, exists := store.Get(vec.Vec3{X: 1})
	assert.False(t, exists, "Незагруженный чанк не должен находиться")
	assert.False(t, store.IsLoaded(vec.Vec3{X: 1}))
	assert.False(t, store.IsGenerated(vec.Vec3{X: 1}))
}

func TestChunkStore_Load(t *testing.T) {
	store := NewChunkStore()
	key := vec.Vec3{X: 2, Y: 1, Z: -3}

	chunk, inserted := store.Load(key)
	require.NotNil(t, chunk)
	assert.True(t, inserted, "Первая загрузка должна создать чанк")
	assert.True(t, store.IsLoaded(key))
	assert.False(t, store.IsGenerated(key), "Загруженный чанк ещё не сгенерирован")

	again, inserted := store.Load(key)
	assert.False(t, inserted, "Повторная загрузка не должна создавать чанк")
	assert.Same(t, chunk, again)
	assert.Equal(t, 1, store.Len())
}

func TestChunkStore_LoadOutOfRange(t *testing.T) {
	store := NewChunkStore()

	chunk, inserted := store.Load(vec.Vec3{Y: -1})
	assert.Nil(t, chunk)
	assert.False(t, inserted)

	chunk, inserted = store.Load(vec.Vec3{Y: WorldHeight})
	assert.Nil(t, chunk)
	assert.False(t, inserted)
	assert.Equal(t, 0, store.Len())
}

func TestChunkStore_ConcurrentLoad(t *testing.T) {
	store := NewChunkStore()
	key := vec.Vec3{X: 7}

	var wg sync.WaitGroup
	var mu sync.Mutex
	insertions := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, inserted := store.Load(key); inserted {
				mu.Lock()
				insertions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, insertions, "Чанк должен вставляться ровно один раз")
	assert.Equal(t, 1, store.Len())
}

func TestChunkStore_Publish(t *testing.T) {
	store := NewChunkStore()
	key := vec.Vec3{X: 1}
	store.Load(key)

	var blocks Blocks
	blocks[0][0][0] = block.StoneBlockID
	first := NewGeneratedChunk(key, &blocks)
	assert.Equal(t, 1, store.Publish(first))
	assert.True(t, store.IsGenerated(key))

	// Повторная публикация не заменяет уже сгенерированный чанк
	assert.Equal(t, 0, store.Publish(NewGeneratedChunk(key, nil)))
	current, _ := store.Get(key)
	assert.Same(t, first, current)

	// Выгруженный ключ не воскрешается публикацией
	orphan := NewGeneratedChunk(vec.Vec3{X: 9}, nil)
	assert.Equal(t, 0, store.Publish(orphan, nil, NewChunk(key)))
	assert.False(t, store.IsLoaded(orphan.Key))
}

func TestChunkStore_RemoveAndKeys(t *testing.T) {
	store := NewChunkStore()
	store.Load(vec.Vec3{X: 1})
	store.Load(vec.Vec3{X: -1})
	store.Load(vec.Vec3{Y: 2})

	assert.Equal(t, []vec.Vec3{{X: -1}, {Y: 2}, {X: 1}}, store.Keys())

	assert.True(t, store.Remove(vec.Vec3{X: 1}))
	assert.False(t, store.Remove(vec.Vec3{X: 1}), "Повторное удаление ничего не делает")
	assert.Equal(t, StoreStats{Loaded: 2}, store.Stats())
}

func TestLocalToGlobalKeys_RoundTrip(t *testing.T) {
	positions := []vec.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 15, Y: 16, Z: 17},
		{X: -1, Y: 5, Z: -16},
		{X: -17, Y: 127, Z: 33},
	}

	for _, pos := range positions {
		key, local := LocalToGlobalKeys(pos)
		assert.True(t, InChunkBounds(local), "Локальная позиция %v должна лежать в чанке", local)
		assert.Equal(t, pos, GlobalPosition(key, local), "Обратное преобразование для %v", pos)
	}

	key, local := LocalToGlobalKeys(vec.Vec3{X: -1, Y: 0, Z: -17})
	assert.Equal(t, vec.Vec3{X: -1, Y: 0, Z: -2}, key)
	assert.Equal(t, vec.Vec3{X: 15, Y: 0, Z: 15}, local)
}

func TestChunkStore_Resolve(t *testing.T) {
	store := NewChunkStore()
	origin := vec.Vec3{X: 0, Y: 1, Z: 0}
	west := vec.Vec3{X: -1, Y: 1, Z: 0}
	store.Load(origin)
	store.Load(west)

	var blocks Blocks
	blocks[4][3][15] = block.DirtBlockID
	store.Publish(NewGeneratedChunk(west, &blocks))

	// Смещение -1 по X из чанка origin попадает в x=15 западного соседа
	id, ok := store.Resolve(origin, vec.Vec3{X: -1, Y: 3, Z: 4})
	assert.True(t, ok)
	assert.Equal(t, block.DirtBlockID, id)

	// Чанк origin загружен, но не сгенерирован
	_, ok = store.Resolve(origin, vec.Vec3{X: 1, Y: 1, Z: 1})
	assert.False(t, ok)

	// Незагруженный сосед
	_, ok = store.Resolve(origin, vec.Vec3{X: 16})
	assert.False(t, ok)

	id, ok = store.BlockAtGlobal(vec.Vec3{X: -1, Y: 19, Z: 4})
	assert.True(t, ok)
	assert.Equal(t, block.DirtBlockID, id)
}

func TestAdjacentKeys(t *testing.T) {
	assert.Len(t, AdjacentKeys(vec.Vec3{X: 3, Y: 3, Z: 3}), 26)
	assert.Len(t, AdjacentKeys(vec.Vec3{Y: 0}), 17, "Нижний слой не имеет соседей снизу")
	assert.Len(t, AdjacentKeys(vec.Vec3{Y: WorldHeight - 1}), 17, "Верхний слой не имеет соседей сверху")

	center := vec.Vec3{X: -2, Y: 4, Z: 8}
	for _, key := range AdjacentKeys(center) {
		assert.NotEqual(t, center, key)
		assert.LessOrEqual(t, key.ChebyshevXZ(center), 1)
		assert.LessOrEqual(t, vec.Abs(key.Y-center.Y), 1)
	}
}

func TestChunkKeyAt(t *testing.T) {
	assert.Equal(t, vec.Vec3{X: 0, Y: 4, Z: -1}, ChunkKeyAt(mgl64.Vec3{0.5, 64.2, -0.1}))
	assert.Equal(t, vec.Vec3{X: -1, Y: 0, Z: 1}, ChunkKeyAt(mgl64.Vec3{-16, 15.99, 16}))
	assert.Equal(t, vec.Vec3{X: -1, Y: 63, Z: 2}, VoxelAt(mgl64.Vec3{-0.5, 63.5, 2}))
}
