// Package logging builds the zap loggers used by both programs.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrlokans/rustypages/internal/config"
)

// New returns a logger writing to stdout, and to a rotated file when
// cfg.File is set.
func New(cfg config.Log) *zap.Logger {
	return build(cfg, os.Stdout)
}

// NewFileOnly returns a logger that never writes to the terminal. The
// terminal reader owns the screen, so it logs to cfg.File or nowhere.
func NewFileOnly(cfg config.Log) *zap.Logger {
	if cfg.File == "" {
		return zap.NewNop()
	}
	return build(cfg, nil)
}

func build(cfg config.Log, console io.Writer) *zap.Logger {
	level := ParseLevel(cfg.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if console != nil {
		cores = append(cores, zapcore.NewCore(encoder(cfg.Encoding, encCfg), zapcore.AddSync(console), level))
	}
	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator(cfg)), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func rotator(cfg config.Log) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   true,
	}
}

func encoder(name string, encCfg zapcore.EncoderConfig) zapcore.Encoder {
	if strings.EqualFold(name, "console") {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
