package logging

import (
	"sort"
	"sync"
)

// Logger пишет логи отдельного компонента.
// Берёт текущий бэкенд при каждой записи, поэтому логгеры,
// полученные до InitLogger, начинают писать после инициализации.
type Logger struct {
	component string
	minLevel  LogLevel
	mu        sync.RWMutex
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.RLock()
	minLevel := l.minLevel
	l.mu.RUnlock()
	if level < minLevel {
		return
	}
	logMessage(current().Named(l.component), level, format, args...)
}

// Enabled сообщает, будет ли записано сообщение уровня level.
// Позволяет не считать дорогие аргументы для выключенных уровней.
func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.RLock()
	minLevel := l.minLevel
	l.mu.RUnlock()
	if level < minLevel {
		return false
	}
	return current().Core().Enabled(level.zapLevel())
}

// Component возвращает имя компонента
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// LoggerManager управляет логгерами разных компонентов
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers: make(map[string]*Logger),
		}
	})
	return globalManager
}

// GetLogger возвращает логгер для компонента, создавая его при необходимости
func (lm *LoggerManager) GetLogger(component string) *Logger {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()

	// Проверяем еще раз на случай race condition
	if logger, exists := lm.loggers[component]; exists {
		return logger
	}

	logger := &Logger{component: component, minLevel: TRACE}
	lm.loggers[component] = logger
	return logger
}

// ListComponents возвращает отсортированный список зарегистрированных компонентов
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// SetLogLevel задаёт минимальный уровень для компонента поверх общего уровня бэкенда
func (lm *LoggerManager) SetLogLevel(component string, level LogLevel) {
	logger := lm.GetLogger(component)
	logger.mu.Lock()
	logger.minLevel = level
	logger.mu.Unlock()
}

// GetComponentLogger удобная обёртка над глобальным менеджером
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().GetLogger(component)
}

func GetWorldLogger() *Logger {
	return GetComponentLogger("world")
}

func GetStreamingLogger() *Logger {
	return GetComponentLogger("streaming")
}

func GetEngineLogger() *Logger {
	return GetComponentLogger("engine")
}
