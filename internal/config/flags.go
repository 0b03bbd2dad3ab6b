package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Путь к YAML файлу конфигурации")
	flagDebug   = flag.Bool("debug", false, "Включить отладочное логирование")
	flagSeed    = flag.Int64("seed", 0, "Сид шума ландшафта (0 = из конфигурации)")
	flagTicks   = flag.Int("ticks", 0, "Остановиться после N тиков (0 = работать до сигнала)")
	flagMetrics = flag.String("metrics", "", "Адрес эндпоинта Prometheus, включает метрики")
)

// ParseFlags разбирает флаги командной строки. Вызывается в начале main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath возвращает путь к конфигурации, если он задан флагом -config
func ConfigPath() string {
	return *flagConfig
}

// ApplyFlags применяет флаги поверх загруженной конфигурации
func ApplyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed != 0 {
		cfg.Terrain.Seed = *flagSeed
	}
	if *flagTicks > 0 {
		cfg.Engine.MaxTicks = *flagTicks
	}
	if *flagMetrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = *flagMetrics
	}
}
