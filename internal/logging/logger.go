package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel переводит строку конфигурации в уровень; неизвестные значения дают INFO
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// zapLevel отображает уровень на zap; у zap нет TRACE, поэтому он совпадает с DEBUG
func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case TRACE, DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Config задаёт параметры системы логирования
type Config struct {
	Level      string `yaml:"level"`        // trace, debug, info, warn, error
	Console    bool   `yaml:"console"`      // Вывод в stdout
	File       string `yaml:"file"`         // Путь к файлу; пусто = без файла
	MaxSizeMB  int    `yaml:"max_size_mb"`  // Размер файла до ротации
	MaxBackups int    `yaml:"max_backups"`  // Сколько старых файлов хранить
	MaxAgeDays int    `yaml:"max_age_days"` // Сколько дней хранить старые файлы
	Compress   bool   `yaml:"compress"`     // Сжимать ротированные файлы
}

// DefaultConfig возвращает настройки по умолчанию: INFO в консоль, без файла
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Console:    true,
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

var (
	baseMu sync.RWMutex
	base   = zap.NewNop()
	rotate *lumberjack.Logger
)

// InitLogger инициализирует систему логирования.
// До вызова InitLogger все сообщения отбрасываются.
func InitLogger(cfg Config) error {
	lvl := ParseLevel(cfg.Level).zapLevel()

	var cores []zapcore.Core

	if cfg.Console {
		consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			NameKey:          "component",
			MessageKey:       "msg",
			EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeLevel:      zapcore.CapitalColorLevelEncoder,
			EncodeName:       zapcore.FullNameEncoder,
			ConsoleSeparator: " ",
		})
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), lvl))
	}

	var fileWriter *lumberjack.Logger
	if cfg.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}

		fileEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			NameKey:          "component",
			MessageKey:       "msg",
			EncodeTime:       zapcore.ISO8601TimeEncoder,
			EncodeLevel:      zapcore.CapitalLevelEncoder,
			EncodeName:       zapcore.FullNameEncoder,
			ConsoleSeparator: " ",
		})
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), lvl))
	}

	if len(cores) == 0 {
		return fmt.Errorf("logging: не задан ни один вывод (console или file)")
	}

	logger := zap.New(zapcore.NewTee(cores...))

	baseMu.Lock()
	old, oldRotate := base, rotate
	base, rotate = logger, fileWriter
	baseMu.Unlock()

	_ = old.Sync()
	if oldRotate != nil {
		_ = oldRotate.Close()
	}
	return nil
}

// CloseLogger сбрасывает буферы и закрывает файл логов
func CloseLogger() {
	baseMu.Lock()
	defer baseMu.Unlock()

	_ = base.Sync()
	if rotate != nil {
		_ = rotate.Close()
		rotate = nil
	}
	base = zap.NewNop()
}

func current() *zap.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// LogTrace логирует сообщение уровня TRACE
func LogTrace(format string, args ...interface{}) {
	logMessage(current(), TRACE, format, args...)
}

// LogDebug логирует сообщение уровня DEBUG
func LogDebug(format string, args ...interface{}) {
	logMessage(current(), DEBUG, format, args...)
}

// LogInfo логирует сообщение уровня INFO
func LogInfo(format string, args ...interface{}) {
	logMessage(current(), INFO, format, args...)
}

// LogWarn логирует сообщение уровня WARN
func LogWarn(format string, args ...interface{}) {
	logMessage(current(), WARN, format, args...)
}

// LogError логирует сообщение уровня ERROR
func LogError(format string, args ...interface{}) {
	logMessage(current(), ERROR, format, args...)
}

// logMessage внутренняя функция для логирования
func logMessage(l *zap.Logger, level LogLevel, format string, args ...interface{}) {
	lvl := level.zapLevel()
	if !l.Core().Enabled(lvl) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if level == TRACE {
		msg = "[TRACE] " + msg
	}
	if ce := l.Check(lvl, msg); ce != nil {
		ce.Write()
	}
}
