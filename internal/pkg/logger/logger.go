package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the zap logger passed into every component. Components take
// a Named child; request scoped code calls WithContext.
type Logger struct {
	*zap.Logger
}

func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := zapcore.ParseLevel(cfg.Level)
	sink, err := sinks(cfg)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder(cfg.Format), sink, level)

	var opts []zap.Option
	if cfg.Caller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.Stacktrace != "" {
		st, _ := zapcore.ParseLevel(cfg.Stacktrace)
		opts = append(opts, zap.AddStacktrace(st))
	}
	return &Logger{Logger: zap.New(core, opts...)}, nil
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func sinks(cfg *Config) (zapcore.WriteSyncer, error) {
	var ws []zapcore.WriteSyncer
	if cfg.Stdout {
		ws = append(ws, zapcore.Lock(os.Stdout))
	}
	if f := cfg.File; f.Enabled {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			return nil, fmt.Errorf("log: create directory: %w", err)
		}
		ws = append(ws, zapcore.AddSync(&lumberjack.Logger{
			Filename:   f.Path,
			MaxSize:    f.MaxSizeMB,
			MaxAge:     f.MaxAgeDays,
			MaxBackups: f.MaxBackups,
			Compress:   f.Compress,
			LocalTime:  true,
		}))
	}
	return zapcore.NewMultiWriteSyncer(ws...), nil
}

// NewFromZap wraps an existing zap logger, mostly for tests with zaptest/observer
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{Logger: z}
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return NewFromZap(zap.NewNop())
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// InitGlobal builds the process logger and installs it as zap's global,
// so zap.L() in third-party code lands in the same sinks.
func InitGlobal(cfg *Config) (*Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l.Logger)
	return l, nil
}
