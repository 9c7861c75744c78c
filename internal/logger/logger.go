// Package logger builds the zap logger shared by commands and services.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console logger with ISO-8601
// timestamps when env is "development" or "dev".
func New(env string) (*zap.Logger, error) {
	return baseConfig(env).Build()
}

// NewWithLevel is New with the minimum level overridden, e.g. "debug" for --verbose.
func NewWithLevel(env, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := baseConfig(env)
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func baseConfig(env string) zap.Config {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg
	default:
		return zap.NewProductionConfig()
	}
}
