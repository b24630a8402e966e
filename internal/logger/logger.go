package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process wide logger. It is a no-op logger until Init is called.
var L = zap.NewNop()

// Init builds L. level is one of debug, info, warn, error; production switches the
// encoder from coloured console output to JSON.
func Init(level string, production bool) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
		fmt.Fprintf(os.Stderr, "Warning: invalid log level '%s', using 'info': %v\n", level, err)
	}

	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	L = l

	L.Info("logger initialized", zap.String("level", zapLevel.String()), zap.Bool("production", production))
	return nil
}

// Sync flushes buffered entries, call it before the process exits.
func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
