package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cloud-ru/mcp-lease-go/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("skipped")
	logger.Warn("schedule rebuilt", zap.Int("periods", 36))

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, `"msg":"schedule rebuilt"`)
	assert.Contains(t, out, `"periods":36`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNewWithWriterNilConfig(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(nil, &buf).Info("hello")
	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "hello")
}

func TestNewRespectsLevel(t *testing.T) {
	logger := New(&config.Config{LogLevel: "error", LogFormat: "json"})
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Core().Enabled(zapcore.ErrorLevel))
}
