package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ENV", "PORT", "STORE_BACKEND", "STORE_PATH", "DATABASE_URL",
	"CLICKHOUSE_DSN", "CLICKHOUSE_USERNAME", "CLICKHOUSE_PASSWORD", "CLICKHOUSE_DATABASE",
	"CLICKHOUSE_MAX_OPEN_CONNS", "CLICKHOUSE_MAX_IDLE_CONNS", "CLICKHOUSE_CONN_MAX_LIFE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "STATS_CACHE_TTL",
	"NATS_URL", "NATS_CONN_TIMEOUT", "SUBMIT_SUBJECT", "PROCESSED_SUBJECT",
	"OTEL_COLLECTOR_URL", "TERMS_FILE", "PIPELINE_WORKERS", "LOG_LEVEL", "SCRAPE_USE_BROWSER",
}

// clearEnv unsets every key Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, "experiences.json", cfg.StorePath)
	assert.Equal(t, 4, cfg.PipelineWorkers)
	assert.Equal(t, 5*time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, "experiences.submitted", cfg.SubmitSubject)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.ScrapeUseBrowser)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "development")
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/interviews")
	t.Setenv("STATS_CACHE_TTL", "30s")
	t.Setenv("PIPELINE_WORKERS", "8")
	t.Setenv("SCRAPE_USE_BROWSER", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://localhost/interviews", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.Equal(t, 8, cfg.PipelineWorkers)
	assert.True(t, cfg.ScrapeUseBrowser)
}

func TestLoad_MalformedNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("NATS_CONN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.NATSConnTimeout)
}

func TestLoadFile_OverlayThenEnv(t *testing.T) {
	clearEnv(t)
	content := `{
		"port": 4000,
		"store_path": "data/experiences.json",
		"pipeline_workers": 2,
		"terms_file": "terms.json"
	}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("PIPELINE_WORKERS", "6")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "data/experiences.json", cfg.StorePath)
	assert.Equal(t, "terms.json", cfg.TermsFile)
	assert.Equal(t, 6, cfg.PipelineWorkers, "environment wins over the file")
	assert.Equal(t, BackendFile, cfg.StoreBackend, "unset keys keep defaults")
}

func TestLoadFile_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile("/nonexistent/path/config.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ invalid json }`), 0644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadFile_EmptyPathUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(c *Config)
		wantErr string
	}{
		{name: "defaults", edit: func(c *Config) {}},
		{name: "port out of range", edit: func(c *Config) { c.Port = 70000 }, wantErr: "'port'"},
		{name: "zero workers", edit: func(c *Config) { c.PipelineWorkers = 0 }, wantErr: "pipeline_workers"},
		{name: "file without path", edit: func(c *Config) { c.StorePath = "" }, wantErr: "store_path"},
		{name: "postgres without url", edit: func(c *Config) { c.StoreBackend = BackendPostgres }, wantErr: "database_url"},
		{name: "clickhouse without dsn", edit: func(c *Config) {
			c.StoreBackend = BackendClickHouse
			c.ClickHouseDSN = ""
		}, wantErr: "clickhouse_dsn"},
		{name: "unknown backend", edit: func(c *Config) { c.StoreBackend = "sqlite" }, wantErr: "unknown store backend"},
		{name: "nats without subject", edit: func(c *Config) {
			c.NATSURL = "nats://localhost:4222"
			c.SubmitSubject = ""
		}, wantErr: "NATS subjects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.edit(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	for env, want := range map[string]bool{"dev": true, "Development": true, "local": true, "production": false, "": false} {
		cfg := Config{Env: env}
		assert.Equal(t, want, cfg.IsDevelopment(), env)
	}
}
