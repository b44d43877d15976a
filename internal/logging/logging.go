// Package logging builds the zap loggers used by the gymwrap command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New
type Options struct {
	// Level is a zap level name such as "debug" or "info"
	Level string

	// Development selects zap's development console encoding
	Development bool

	// File, if set, also writes JSON logs to this file, rotated by size
	File string
}

// New returns a logger writing to stderr and, if o.File is set, to a
// rotating log file
func New(o Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if o.Level != "" {
		if err := level.UnmarshalText([]byte(o.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level '%s': %w", o.Level, err)
		}
	}

	var cfg zap.Config
	if o.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("unable to create zap logger: %w", err)
	}
	if o.File == "" {
		return logger, nil
	}

	fileCore, err := newFileCore(o.File, level)
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}

func newFileCore(path string, level zapcore.LevelEnabler) (zapcore.Core,
	error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log path '%s': %w", dir,
				err)
		}
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     60, // days
	})
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		w,
		level,
	), nil
}

// Sync flushes logger, swallowing the errors zap returns when syncing
// a terminal
func Sync(logger *zap.Logger) {
	// https://github.com/uber-go/zap/issues/880
	_ = logger.Sync()
}
