package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxel"

// Metrics инкапсулирует Prometheus-метрики конвейера чанков
type Metrics struct {
	ChunksGenerated prometheus.Counter
	MeshesExtracted prometheus.Counter
	MeshDeferred    prometheus.Counter
	RenderEvictions prometheus.Counter
	VoxelEvictions  prometheus.Counter

	ChunksLoaded  prometheus.Gauge
	RenderEntries prometheus.Gauge

	TickDuration prometheus.Histogram
}

// New создаёт метрики и регистрирует их в reg. При reg == nil метрики не регистрируются.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChunksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_generated_total",
			Help:      "Количество сгенерированных и опубликованных чанков.",
		}),
		MeshesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meshes_extracted_total",
			Help:      "Количество сеток, переданных в приёмник.",
		}),
		MeshDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mesh_deferred_total",
			Help:      "Построения сеток, отложенные из-за несгенерированных соседей или устаревшего LOD.",
		}),
		RenderEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_evictions_total",
			Help:      "Записи отрисовки, удалённые за радиусом отрисовки.",
		}),
		VoxelEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voxel_evictions_total",
			Help:      "Чанки, воксели которых выгружены за радиусом хранения.",
		}),
		ChunksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_loaded",
			Help:      "Количество загруженных чанков.",
		}),
		RenderEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "render_entries",
			Help:      "Количество записей отрисовки.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ChunksGenerated, m.MeshesExtracted, m.MeshDeferred,
			m.RenderEvictions, m.VoxelEvictions,
			m.ChunksLoaded, m.RenderEntries, m.TickDuration,
		)
	}
	return m
}

// Server обслуживает HTTP-эндпоинт Prometheus
type Server struct {
	srv *http.Server
}

// StartHTTP запускает HTTP-эндпоинт /metrics на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func StartHTTP(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}

	go func() {
		logging.LogInfo("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return s
}

// Stop останавливает HTTP-сервер
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
