package deck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogOff
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type Fields map[string]any

// levelState is shared by a logger and every logger derived from it, so
// SetLevel on the root reaches request-scoped children.
type levelState struct {
	slog slog.LevelVar
	off  atomic.Bool
	cur  atomic.Int32
}

func (s *levelState) set(level LogLevel) {
	s.cur.Store(int32(level))
	s.off.Store(level >= LogOff)
	s.slog.Set(level.slogLevel())
}

// Logger writes printf-style messages through a slog text handler.
type Logger struct {
	logger *slog.Logger
	level  *levelState
	fields Fields
}

var (
	globalLogger     atomic.Pointer[Logger]
	globalLoggerOnce sync.Once
)

func initGlobalLogger() {
	globalLoggerOnce.Do(func() {
		if globalLogger.Load() != nil {
			return
		}
		config := GetGlobalConfig()
		globalLogger.Store(NewLogger(os.Stderr, parseLogLevel(config.LogLevel)))
	})
}

func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LogDebug
	case "info":
		return LogInfo
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	case "off":
		return LogOff
	default:
		return LogInfo
	}
}

func NewLogger(w io.Writer, level LogLevel) *Logger {
	if w == nil {
		w = io.Discard
	}
	state := &levelState{}
	state.set(level)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &state.slog})
	return &Logger{
		logger: slog.New(handler),
		level:  state,
		fields: make(Fields),
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level.set(level)
}

// Level returns the current level.
func (l *Logger) Level() LogLevel {
	return LogLevel(l.level.cur.Load())
}

func (l *Logger) IsDebugMode() bool {
	return l.Level() == LogDebug
}

// Slog exposes the underlying slog.Logger with this logger's fields attached.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(Fields{key: value})
}

func (l *Logger) WithFields(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		merged[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return &Logger{
		logger: l.logger.With(attrs...),
		level:  l.level,
		fields: merged,
	}
}

func (l *Logger) log(level LogLevel, format string, args ...any) {
	if l.level.off.Load() {
		return
	}
	ctx := context.Background()
	sl := level.slogLevel()
	if !l.logger.Enabled(ctx, sl) {
		return
	}
	l.logger.Log(ctx, sl, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(LogDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LogInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LogWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LogError, format, args...)
}

// Global logging functions
func SetLogger(logger *Logger) {
	globalLogger.Store(logger)
}

func GetLogger() *Logger {
	initGlobalLogger()
	return globalLogger.Load()
}

func Debug(format string, args ...any) {
	GetLogger().Debug(format, args...)
}

func Info(format string, args ...any) {
	GetLogger().Info(format, args...)
}

func Warn(format string, args ...any) {
	GetLogger().Warn(format, args...)
}

func Error(format string, args ...any) {
	GetLogger().Error(format, args...)
}

func WithField(key string, value any) *Logger {
	return GetLogger().WithField(key, value)
}

func WithFields(fields Fields) *Logger {
	return GetLogger().WithFields(fields)
}

// UpdateLoggerFromConfig updates the global logger based on the current global configuration
func UpdateLoggerFromConfig() {
	config := GetGlobalConfig()
	GetLogger().SetLevel(parseLogLevel(config.LogLevel))
}
