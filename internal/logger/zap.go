package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.DebugLevel

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newEncoder picks a JSON encoder for "json" and a console encoder otherwise.
func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	if format == FormatJSON {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newCore(enc zapcore.Encoder, ws zapcore.WriteSyncer, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(level))
}

// New builds a sugared zap logger writing to stdout.
func New(level, format string) *Logger {
	core := newCore(newEncoder(format), zapcore.Lock(os.Stdout), toZapLevel(level))
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// NewWithSyncer is New with an explicit destination, used by tests.
func NewWithSyncer(level, format string, ws zapcore.WriteSyncer) *Logger {
	core := newCore(newEncoder(format), ws, toZapLevel(level))
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
