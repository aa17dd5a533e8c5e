package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cloud-ru/mcp-lease-go/internal/config"
)

// New создает структурированный логгер по настройкам LOG_LEVEL и LOG_FORMAT
func New(cfg *config.Config) *zap.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter то же, что New, но с заданным приемником вывода
func NewWithWriter(cfg *config.Config, w io.Writer) *zap.Logger {
	level, format := "info", "console"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	default:
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), parseLevel(level))
	return zap.New(core)
}

// Discard логгер, который ничего не пишет
func Discard() *zap.Logger {
	return zap.NewNop()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
