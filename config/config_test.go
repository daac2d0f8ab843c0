package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "3000", c.AppPort)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "./sqlite.db", c.DatabaseURI)
	assert.Equal(t, "files", c.StorageDir)
	assert.Equal(t, int64(200*1024*1024), c.DefaultMaxStorage)
	assert.Equal(t, 60, c.TokenLength)
	assert.Equal(t, 3, c.TokenTTLHours)
	assert.False(t, c.DisableSignup)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Empty(t, c.RedisHost)
}

func TestApplyDefaultsKeepsExisting(t *testing.T) {
	c := AppConfig{AppPort: "8080", DatabaseDriver: "mysql", TokenLength: 32}
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "mysql", c.DatabaseDriver)
	assert.Equal(t, 32, c.TokenLength)
	// mysql leaves the URI to the DSN builder.
	assert.Empty(t, c.DatabaseURI)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("STORAGE_DIR", "/srv/blobs")
	t.Setenv("DEFAULT_MAX_STORAGE", "-1")
	t.Setenv("DISABLE_SIGNUP", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "/srv/blobs", c.StorageDir)
	assert.Equal(t, int64(-1), c.DefaultMaxStorage)
	assert.True(t, c.DisableSignup)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestLoadJSONConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "4000", "RateLimitPerMinute": 10},
		"storage": {"Dir": "/data", "DefaultMaxStorageMB": 50},
		"sessions": {"TokenLength": 40, "DisableSignup": true}
	}`), 0o644))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))

	assert.Equal(t, "4000", c.AppPort)
	assert.Equal(t, 10, c.RateLimitPerMinute)
	assert.Equal(t, "/data", c.StorageDir)
	assert.Equal(t, int64(50*1024*1024), c.DefaultMaxStorage)
	assert.Equal(t, 40, c.TokenLength)
	assert.True(t, c.DisableSignup)
}

func TestLoadJSONConfigMissingFile(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))
	assert.Equal(t, AppConfig{}, c)
}
