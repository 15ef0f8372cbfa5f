package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrlokans/rustypages/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestNewFileOnly_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reader.log")
	log := NewFileOnly(config.Log{Level: "debug", File: path, MaxSizeMB: 1})

	log.Info("opened book", zap.String("book_id", "b1"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"opened book"`)
	assert.Contains(t, string(data), `"book_id":"b1"`)
	assert.Contains(t, string(data), `"ts":`)
}

func TestNewFileOnly_WithoutFileIsSilent(t *testing.T) {
	log := NewFileOnly(config.Log{Level: "debug"})
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}
