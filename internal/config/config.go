package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/streaming"
	"gopkg.in/yaml.v3"
)

// ErrInvalid возвращается Validate для некорректной конфигурации
var ErrInvalid = errors.New("invalid config")

// EnvConfigPath переменная окружения с путём к файлу конфигурации
const EnvConfigPath = "VOXEL_CONFIG"

// Config корневая структура конфигурации приложения
type Config struct {
	Terrain   TerrainConfig    `yaml:"terrain"`
	Streaming streaming.Config `yaml:"streaming"`
	Engine    EngineConfig     `yaml:"engine"`
	Observer  ObserverConfig   `yaml:"observer"`
	Logging   logging.Config   `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
}

type TerrainConfig struct {
	Seed       int64   `yaml:"seed"`
	NoiseScale float64 `yaml:"noise_scale"`
}

type EngineConfig struct {
	TickRate       int           `yaml:"tick_rate"`
	WorkBudget     time.Duration `yaml:"work_budget"`
	Workers        int           `yaml:"workers"`
	MaxJobsPerTick int           `yaml:"max_jobs_per_tick"`
	MaxTicks       int           `yaml:"max_ticks"` // 0 = работать до сигнала
}

// ObserverConfig описывает наблюдателя безголового режима
type ObserverConfig struct {
	Spawn     [3]float64 `yaml:"spawn"`      // X и Z точки появления; Y вычисляется по ландшафту, если 0
	WalkSpeed float64    `yaml:"walk_speed"` // Скорость движения вдоль +X, вокселей в секунду
	Gravity   float64    `yaml:"gravity"`    // Ускорение свободного падения
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GetAddr возвращает адрес метрик с приоритетом: config -> env -> default
func (m *MetricsConfig) GetAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	if env := os.Getenv("VOXEL_METRICS_ADDR"); env != "" {
		return env
	}
	return ":2112"
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Seed:       102,
			NoiseScale: 32,
		},
		Streaming: streaming.DefaultConfig(),
		Engine: EngineConfig{
			TickRate:       60,
			WorkBudget:     5 * time.Millisecond,
			Workers:        runtime.NumCPU(),
			MaxJobsPerTick: 256,
		},
		Observer: ObserverConfig{
			WalkSpeed: 4,
			Gravity:   20,
		},
		Logging: logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "voxel-world",
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет диапазоны значений
func (c *Config) Validate() error {
	switch {
	case c.Terrain.NoiseScale <= 0:
		return fmt.Errorf("%w: terrain.noise_scale должен быть > 0", ErrInvalid)
	case c.Streaming.RenderDistance < 0:
		return fmt.Errorf("%w: streaming.render_distance не может быть отрицательным", ErrInvalid)
	case c.Streaming.LODRange <= 0:
		return fmt.Errorf("%w: streaming.lod_range должен быть > 0", ErrInvalid)
	case c.Streaming.RetentionDistance < 0:
		return fmt.Errorf("%w: streaming.retention_distance не может быть отрицательным", ErrInvalid)
	case c.Streaming.Retention() < c.Streaming.RenderDistance:
		return fmt.Errorf("%w: streaming.retention_distance (%d) меньше render_distance (%d)",
			ErrInvalid, c.Streaming.Retention(), c.Streaming.RenderDistance)
	case c.Engine.TickRate <= 0:
		return fmt.Errorf("%w: engine.tick_rate должен быть > 0", ErrInvalid)
	case c.Engine.WorkBudget < 0:
		return fmt.Errorf("%w: engine.work_budget не может быть отрицательным", ErrInvalid)
	case c.Engine.Workers <= 0:
		return fmt.Errorf("%w: engine.workers должен быть > 0", ErrInvalid)
	case c.Engine.MaxJobsPerTick < 0:
		return fmt.Errorf("%w: engine.max_jobs_per_tick не может быть отрицательным", ErrInvalid)
	case c.Engine.MaxTicks < 0:
		return fmt.Errorf("%w: engine.max_ticks не может быть отрицательным", ErrInvalid)
	}
	return nil
}
