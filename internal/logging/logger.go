package logging

import (
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Fields is a set of structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// WithField returns a single-entry field set.
func WithField(key string, value interface{}) Fields {
	return Fields{key: value}
}

// WithFields wraps an arbitrary map as a field set.
func WithFields(fields map[string]interface{}) Fields {
	return Fields(fields)
}

// Logger is a thin structured logger backed by zap.
type Logger struct {
	z *zap.Logger
}

// New creates a console logger at the given level.
func New(level Level) *Logger {
	return NewWithFormat(level, "console")
}

// NewWithFormat creates a logger writing either "json" or "console" output.
func NewWithFormat(level Level, format string) *Logger {
	var cfg zap.Config
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())

	z, err := cfg.Build()
	if err != nil {
		return NewNop()
	}
	return &Logger{z: z}
}

// NewNop returns a logger that drops everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// NewTest returns a logger that writes through t.Log.
func NewTest(t testing.TB) *Logger {
	return &Logger{z: zaptest.NewLogger(t)}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields ...Fields) *Logger {
	return &Logger{z: l.zap().With(toZap(fields)...)}
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.zap().Debug(msg, toZap(fields)...)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.zap().Info(msg, toZap(fields)...)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.zap().Warn(msg, toZap(fields)...)
}

func (l *Logger) Error(msg string, fields ...Fields) {
	l.zap().Error(msg, toZap(fields)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap().Sync()
}

func (l *Logger) zap() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z
}

func (lv Level) zapLevel() zapcore.Level {
	switch lv {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZap(sets []Fields) []zap.Field {
	if len(sets) == 0 {
		return nil
	}
	var out []zap.Field
	for _, set := range sets {
		keys := make([]string, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err, ok := set[k].(error); ok {
				out = append(out, zap.NamedError(k, err))
				continue
			}
			out = append(out, zap.Any(k, set[k]))
		}
	}
	return out
}
