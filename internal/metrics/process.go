package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats содержит снимок ресурсов процесса
type ProcessStats struct {
	Uptime     time.Duration
	CPUPercent float64
	RSSBytes   uint64
	HeapMB     float64
	Goroutines int
}

// String форматирует снимок для строки лога
func (s ProcessStats) String() string {
	return fmt.Sprintf("аптайм %s, CPU %.1f%%, RSS %.1f MB, куча %.1f MB, горутин %d",
		FormatUptime(s.Uptime), s.CPUPercent, float64(s.RSSBytes)/1024/1024, s.HeapMB, s.Goroutines)
}

// ProcessSampler снимает загрузку CPU и память процесса и публикует их как gauges
type ProcessSampler struct {
	start time.Time
	proc  *process.Process

	cpu prometheus.Gauge
	rss prometheus.Gauge
}

// NewProcessSampler создаёт сэмплер текущего процесса. При reg == nil gauges не регистрируются.
func NewProcessSampler(reg prometheus.Registerer) (*ProcessSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("открытие процесса: %w", err)
	}

	s := &ProcessSampler{
		start: time.Now(),
		proc:  proc,
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом в процентах.",
		}),
		rss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_rss_bytes",
			Help:      "Резидентная память процесса.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.cpu, s.rss)
	}
	return s, nil
}

// Sample снимает текущие значения. Ошибки gopsutil оставляют соответствующее поле нулевым.
func (s *ProcessSampler) Sample() ProcessStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     time.Since(s.start),
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}
	if cpu, err := s.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if mem, err := s.proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}

	s.cpu.Set(stats.CPUPercent)
	s.rss.Set(float64(stats.RSSBytes))
	return stats
}

// FormatUptime форматирует длительность как "1д 2ч 3м 4с", опуская старшие нулевые части
func FormatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}
