// Package observability builds the structured loggers used across the simulation.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/rpgsheet/internal/config"
)

// ServiceName is attached to every log entry.
const ServiceName = "rpgsheet"

// NewLogger creates a structured logger writing to stderr from the given logging
// configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, encCfg, err := parse(cfg)
	if err != nil {
		return nil, err
	}
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Encoding = cfg.Format
	zapCfg.EncoderConfig = encCfg
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.InitialFields = map[string]interface{}{"service": ServiceName}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// NewLoggerTo creates a logger like NewLogger that writes to ws instead of stderr.
//
// Precondition: ws must be non-nil.
func NewLoggerTo(cfg config.LoggingConfig, ws zapcore.WriteSyncer) (*zap.Logger, error) {
	level, encCfg, err := parse(cfg)
	if err != nil {
		return nil, err
	}
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, ws, level)
	return zap.New(core).With(zap.String("service", ServiceName)), nil
}

func parse(cfg config.LoggingConfig) (zapcore.Level, zapcore.EncoderConfig, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return 0, zapcore.EncoderConfig{}, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	var encCfg zapcore.EncoderConfig
	switch cfg.Format {
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
	case "console":
		encCfg = zap.NewDevelopmentEncoderConfig()
	default:
		return 0, zapcore.EncoderConfig{}, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return level, encCfg, nil
}
