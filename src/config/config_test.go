package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("backend_url: http://localhost:8000\n"))
	require.NoError(t, err)

	assert.Equal(t, "stocknews-client", cfg.Name)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "file", cfg.Storage.TokenStore)
	assert.Equal(t, "none", cfg.Storage.DBType)
	assert.Equal(t, "token.json", filepath.Base(cfg.Storage.TokenPath))
	assert.Equal(t, DefaultSymbols, cfg.Dashboard.Symbols)
	assert.Equal(t, 20, cfg.Dashboard.RotationSeconds)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, time.Minute, cfg.RefreshInterval())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("STOCKNEWS_BACKEND_URL", "https://news.example.com")
	t.Setenv("STOCKNEWS_PORT", "9100")

	cfg, err := Parse([]byte("backend_url: http://localhost:8000\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.com", cfg.BackendURL)
	assert.Equal(t, 9100, cfg.Port)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"missing backend":   "name: x\n",
		"bad scheme":        "backend_url: ftp://host\n",
		"low port":          "backend_url: http://h\nport: 80\n",
		"unknown store":     "backend_url: http://h\nstorage:\n  token_store: etcd\n",
		"redis without url": "backend_url: http://h\nstorage:\n  token_store: redis\n",
		"sqlite no path":    "backend_url: http://h\nstorage:\n  db_type: sqlite\n",
		"unknown db":        "backend_url: http://h\nstorage:\n  db_type: mysql\n",
		"negative retries":  "backend_url: http://h\nnetwork:\n  retries: -1\n",
		"empty symbol":      "backend_url: http://h\ndashboard:\n  symbols: [AAPL, \"\"]\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestAPIBaseURLTrimsSlash(t *testing.T) {
	cfg, err := Parse([]byte("backend_url: http://localhost:8000/\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBaseURL())
}

func TestNewConfigLoadsSiblingEnv(t *testing.T) {
	require.NoError(t, os.Unsetenv("STOCKNEWS_LOG_LEVEL"))
	t.Cleanup(func() { os.Unsetenv("STOCKNEWS_LOG_LEVEL") })

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url: http://localhost:8000\nlog_level: INFO\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOCKNEWS_LOG_LEVEL=DEBUG\n"), 0o644))

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(filepath.Join("..", "..", "config", "default.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.DBType)

	cfg.Dashboard.RotationSeconds = 30
	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.Dashboard.RotationSeconds)
	assert.Equal(t, cfg.Dashboard.Symbols, loaded.Dashboard.Symbols)
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("STOCKNEWS_TEST_INT", "nope")
	assert.Equal(t, 7, GetEnvAsInt("STOCKNEWS_TEST_INT", 7))
	t.Setenv("STOCKNEWS_TEST_INT", "12")
	assert.Equal(t, 12, GetEnvAsInt("STOCKNEWS_TEST_INT", 7))
}
