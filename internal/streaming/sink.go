package streaming

import (
	"sync"

	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/vec"
)

// Handle непрозрачный идентификатор представления чанка во внешнем рендерере
type Handle uint64

// MeshSink принимает сетки чанков. Реализуется слоем отрисовки вне ядра.
type MeshSink interface {
	// Create создаёт представление чанка, размещённое в мировой позиции origin
	Create(key vec.Vec3, origin vec.Vec3) Handle
	// Upload заменяет сетку представления целиком
	Upload(h Handle, m *mesh.Mesh)
	// Destroy удаляет представление
	Destroy(h Handle)
}

// SinkStats содержит счётчики операций MemorySink
type SinkStats struct {
	Live      int
	Created   uint64
	Uploaded  uint64
	Destroyed uint64
	Quads     int
}

type sinkEntry struct {
	key    vec.Vec3
	origin vec.Vec3
	mesh   *mesh.Mesh
}

// MemorySink хранит сетки в памяти. Используется в безголовом режиме и в тестах.
type MemorySink struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]*sinkEntry
	stats   SinkStats
}

// NewMemorySink создаёт пустой приёмник сеток
func NewMemorySink() *MemorySink {
	return &MemorySink{
		entries: make(map[Handle]*sinkEntry),
	}
}

func (s *MemorySink) Create(key vec.Vec3, origin vec.Vec3) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.entries[s.next] = &sinkEntry{key: key, origin: origin}
	s.stats.Created++
	return s.next
}

func (s *MemorySink) Upload(h Handle, m *mesh.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[h]
	if !exists {
		return
	}
	entry.mesh = m
	s.stats.Uploaded++
}

func (s *MemorySink) Destroy(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[h]; !exists {
		return
	}
	delete(s.entries, h)
	s.stats.Destroyed++
}

// Mesh возвращает последнюю загруженную сетку представления
func (s *MemorySink) Mesh(h Handle) (*mesh.Mesh, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[h]
	if !exists || entry.mesh == nil {
		return nil, false
	}
	return entry.mesh, true
}

// Origin возвращает мировую позицию представления
func (s *MemorySink) Origin(h Handle) (vec.Vec3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[h]
	if !exists {
		return vec.Vec3{}, false
	}
	return entry.origin, true
}

// Stats возвращает снимок счётчиков
func (s *MemorySink) Stats() SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.stats
	stats.Live = len(s.entries)
	for _, entry := range s.entries {
		if entry.mesh != nil {
			stats.Quads += entry.mesh.QuadCount()
		}
	}
	return stats
}
