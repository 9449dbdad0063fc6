// Package logging wires the service logger to a zap sink.
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON zap logger at the given level and an ectologger that
// writes every entry through it. Call Sync on the zap logger before exit.
func New(level string) (ectologger.Logger, *zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.DisableStacktrace = true

	z, err := config.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return FromZap(z), z, nil
}

// FromZap adapts an existing zap logger, keeping each entry's level,
// message, fields and error.
func FromZap(z *zap.Logger) ectologger.Logger {
	return zapadapter.NewZapEctoLogger(z, nil)
}

// Nop discards every entry.
func Nop() ectologger.Logger {
	return FromZap(zap.NewNop())
}
