package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the test so Load sees only that directory's .env.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, DefaultSessionPath(), cfg.Session.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TASKS_API_BASE_URL", "https://tasks.example.com/api")
	t.Setenv("TASKS_API_TIMEOUT", "3s")
	t.Setenv("TASKS_SESSION_BACKEND", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Session.Backend)
}

func TestLoadFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKS_LOG_LEVEL=debug\n"), 0o600))
	os.Unsetenv("TASKS_LOG_LEVEL")
	t.Cleanup(func() { os.Unsetenv("TASKS_LOG_LEVEL") })

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://10.0.0.2:8080\nsession:\n  backend: redis\nredis:\n  addr: cache:6379\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:8080", cfg.API.BaseURL)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	valid := Config{
		API:     APIConfig{BaseURL: "http://localhost:5000", Timeout: time.Second},
		Session: SessionConfig{Backend: "memory"},
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.API.BaseURL = "localhost:5000"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.API.Timeout = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Session.Backend = "sqlite"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Session = SessionConfig{Backend: "file"}
	assert.Error(t, bad.Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("op", "list tasks").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"op":"list tasks"`)
	assert.Contains(t, out, `"message":"shown"`)
}
