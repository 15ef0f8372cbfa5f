package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(3000), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 100, cfg.Auth.RequestsPerWindow)
	assert.Equal(t, time.Minute, cfg.Auth.RequestWindow)
	assert.Equal(t, []string{"http://localhost:5500"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, DefaultLocationChunkSize, cfg.Locations.ChunkSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Reader.AckGrace)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("READER_ACK_GRACE", "1s")
	t.Setenv("LOCATIONS_CHUNK_SIZE", "512")

	cfg := NewConfig()

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.Reader.AckGrace)
	assert.Equal(t, 512, cfg.Locations.ChunkSize)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a"}, splitList(" a ,, "))
}
