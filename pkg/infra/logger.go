package infra

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "quickqueue"

var (
	// Allow changing log level at run time.
	LoggerLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// LoggerFactory hands out named loggers sharing one core, so every
// component shows up as quickqueue.<Name> in the output.
type LoggerFactory struct {
	baseLogger *zap.Logger
}

func (f *LoggerFactory) Create(name string) *zap.Logger {
	return f.baseLogger.Named(name)
}

func (f *LoggerFactory) Sync() error {
	return f.baseLogger.Sync()
}

// ProvideLoggerFactory logs in color to stdout by default. Set
// LOG_ENCODING=json when the output is shipped somewhere.
func ProvideLoggerFactory() *LoggerFactory {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "name",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoding := "console"
	if os.Getenv("LOG_ENCODING") == "json" {
		encoding = "json"
		// No escape codes in json.
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cfg := zap.Config{
		Level:            LoggerLevel,
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger := zap.Must(cfg.Build()).Named(serviceName)
	if hostname, err := os.Hostname(); err == nil {
		logger = logger.With(zap.String("host", hostname))
	}
	logger.Info("logger created", zap.String("encoding", encoding), zap.Stringer("level", LoggerLevel.Level()))

	return &LoggerFactory{
		baseLogger: logger,
	}
}

// NewNopLoggerFactory discards everything. Meant for tests.
func NewNopLoggerFactory() *LoggerFactory {
	return &LoggerFactory{
		baseLogger: zap.NewNop(),
	}
}
