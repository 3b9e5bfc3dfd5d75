package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

type Options struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// New builds the process logger. JSON in production, console for local runs.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(opts.Format, "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	return cfg.Build()
}

// Email logs an address with most of the local part hidden.
func Email(key, addr string) zap.Field {
	return zap.String(key, entity.RedactEmail(addr))
}

// Handle logs a Twitter handle with the leading "@".
func Handle(key, handle string) zap.Field {
	return zap.String(key, "@"+strings.TrimPrefix(handle, "@"))
}
