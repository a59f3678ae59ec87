package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// NewSugaredLogger creates a sugared logger writing timestamped lines to stderr.
// If verbose is true the level is lowered to debug. Format selects the encoder
// and must be either "console" or "json".
func NewSugaredLogger(verbose bool, format string) (*zap.SugaredLogger, error) {
	cfg, err := loggerConfig(verbose, format)
	if err != nil {
		return nil, err
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s logger: %w", cfg.Encoding, err)
	}
	return l.Sugar(), nil
}

func loggerConfig(verbose bool, format string) (zap.Config, error) {
	var cfg zap.Config
	switch format {
	case "", LogFormatConsole:
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case LogFormatJSON:
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	default:
		return zap.Config{}, fmt.Errorf("unsupported log format %q", format)
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg, nil
}
