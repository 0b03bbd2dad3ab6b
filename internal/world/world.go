package world

import (
	"sort"
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/go-gl/mathgl/mgl64"
)

// ChunkStore является единственным источником истины для данных вокселей.
//
// Эксклюзивная блокировка нужна только для структурных изменений карты
// (вставка, публикация, удаление). Опубликованный чанк неизменяем и читается без блокировок.
type ChunkStore struct {
	chunks map[vec.Vec3]*Chunk // Загруженные чанки
	mu     sync.RWMutex        // Мьютекс карты чанков
}

// StoreStats содержит снимок состояния хранилища
type StoreStats struct {
	Loaded    int
	Generated int
}

// NewChunkStore создаёт пустое хранилище чанков
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[vec.Vec3]*Chunk),
	}
}

// Get возвращает чанк по ключу; false, если чанк не загружен
func (s *ChunkStore) Get(key vec.Vec3) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, exists := s.chunks[key]
	return chunk, exists
}

// IsLoaded проверяет, загружен ли чанк
func (s *ChunkStore) IsLoaded(key vec.Vec3) bool {
	_, exists := s.Get(key)
	return exists
}

// IsGenerated возвращает false, если чанк не загружен или ещё не сгенерирован
func (s *ChunkStore) IsGenerated(key vec.Vec3) bool {
	chunk, exists := s.Get(key)
	return exists && chunk.IsGenerated()
}

// Load вставляет пустой чанк, если ключ ещё не загружен.
// Возвращает чанк и true, если он был создан этим вызовом.
// Ключи вне диапазона высот мира отклоняются (nil, false).
func (s *ChunkStore) Load(key vec.Vec3) (*Chunk, bool) {
	if !InWorldRange(key) {
		return nil, false
	}

	s.mu.RLock()
	chunk, exists := s.chunks[key]
	s.mu.RUnlock()
	if exists {
		return chunk, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Проверяем еще раз под блокировкой записи
	if chunk, exists := s.chunks[key]; exists {
		return chunk, false
	}
	chunk = NewChunk(key)
	s.chunks[key] = chunk
	return chunk, true
}

// Publish атомарно устанавливает сгенерированные чанки, одна точка синхронизации на пачку.
// Чанки, ключ которых уже выгружен или уже сгенерирован, пропускаются.
// Возвращает количество опубликованных чанков.
func (s *ChunkStore) Publish(chunks ...*Chunk) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	published := 0
	for _, chunk := range chunks {
		if chunk == nil || !chunk.IsGenerated() {
			continue
		}
		current, exists := s.chunks[chunk.Key]
		if !exists || current.IsGenerated() {
			continue
		}
		s.chunks[chunk.Key] = chunk
		published++
	}
	return published
}

// Remove выгружает чанк; false, если он не был загружен
func (s *ChunkStore) Remove(key vec.Vec3) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chunks[key]; !exists {
		return false
	}
	delete(s.chunks, key)
	return true
}

// Keys возвращает отсортированный список загруженных ключей
func (s *ChunkStore) Keys() []vec.Vec3 {
	s.mu.RLock()
	keys := make([]vec.Vec3, 0, len(s.chunks))
	for key := range s.chunks {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Len возвращает количество загруженных чанков
func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Stats возвращает количество загруженных и сгенерированных чанков
func (s *ChunkStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{Loaded: len(s.chunks)}
	for _, chunk := range s.chunks {
		if chunk.IsGenerated() {
			stats.Generated++
		}
	}
	return stats
}

// Resolve возвращает воксель по смещению относительно чанка key.
// Смещение может выходить за границы чанка: владелец пересчитывается как
// key + floor(offset / ChunkSize). false, если владелец не загружен или не сгенерирован.
func (s *ChunkStore) Resolve(key, offset vec.Vec3) (block.BlockID, bool) {
	owner := key.Add(offset.FloorDiv(ChunkSize))

	chunk, exists := s.Get(owner)
	if !exists || !chunk.IsGenerated() {
		return block.AirBlockID, false
	}
	return chunk.Block(offset.Mod(ChunkSize)), true
}

// BlockAtGlobal возвращает воксель по глобальным координатам
func (s *ChunkStore) BlockAtGlobal(pos vec.Vec3) (block.BlockID, bool) {
	key, local := LocalToGlobalKeys(pos)
	return s.Resolve(key, local)
}

// LocalToGlobalKeys раскладывает глобальную позицию вокселя на ключ чанка и локальную позицию
func LocalToGlobalKeys(pos vec.Vec3) (key, local vec.Vec3) {
	return pos.FloorDiv(ChunkSize), pos.Mod(ChunkSize)
}

// GlobalPosition выполняет обратное преобразование: key*ChunkSize + local
func GlobalPosition(key, local vec.Vec3) vec.Vec3 {
	return ChunkOrigin(key).Add(local)
}

// InWorldRange проверяет, что ключ чанка лежит в допустимом диапазоне высот
func InWorldRange(key vec.Vec3) bool {
	return key.Y >= 0 && key.Y < WorldHeight
}

// AdjacentKeys возвращает ключи 26 соседей (окрестность 3x3x3 без самого ключа),
// отфильтрованные по диапазону высот мира
func AdjacentKeys(key vec.Vec3) []vec.Vec3 {
	keys := make([]vec.Vec3, 0, 26)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				neighbor := key.Add(vec.Vec3{X: dx, Y: dy, Z: dz})
				if InWorldRange(neighbor) {
					keys = append(keys, neighbor)
				}
			}
		}
	}
	return keys
}

// VoxelAt возвращает целочисленную позицию вокселя, содержащего мировую точку
func VoxelAt(pos mgl64.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: floorInt(pos.X()),
		Y: floorInt(pos.Y()),
		Z: floorInt(pos.Z()),
	}
}

// ChunkKeyAt возвращает ключ чанка, содержащего мировую точку
func ChunkKeyAt(pos mgl64.Vec3) vec.Vec3 {
	return VoxelAt(pos).FloorDiv(ChunkSize)
}
