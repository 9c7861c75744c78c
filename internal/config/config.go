// Package config loads service configuration from the environment,
// optionally layered over a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendFile       = "file"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
)

// Config holds everything the commands need to wire the service.
// JSON names are used by config files; environment variables override them.
type Config struct {
	Env  string `json:"env,omitempty"`
	Port int    `json:"port,omitempty"`

	StoreBackend string `json:"store_backend,omitempty"`
	StorePath    string `json:"store_path,omitempty"`
	DatabaseURL  string `json:"database_url,omitempty"`

	ClickHouseDSN          string        `json:"clickhouse_dsn,omitempty"`
	ClickHouseUsername     string        `json:"clickhouse_username,omitempty"`
	ClickHousePassword     string        `json:"clickhouse_password,omitempty"`
	ClickHouseDatabase     string        `json:"clickhouse_database,omitempty"`
	ClickHouseMaxOpenConns int           `json:"clickhouse_max_open_conns,omitempty"`
	ClickHouseMaxIdleConns int           `json:"clickhouse_max_idle_conns,omitempty"`
	ClickHouseConnMaxLife  time.Duration `json:"clickhouse_conn_max_life,omitempty"`

	// RedisAddr empty disables the stats cache.
	RedisAddr     string        `json:"redis_addr,omitempty"`
	RedisPassword string        `json:"redis_password,omitempty"`
	RedisDB       int           `json:"redis_db,omitempty"`
	StatsCacheTTL time.Duration `json:"stats_cache_ttl,omitempty"`

	// NATSURL empty disables event publishing.
	NATSURL          string        `json:"nats_url,omitempty"`
	NATSConnTimeout  time.Duration `json:"nats_conn_timeout,omitempty"`
	SubmitSubject    string        `json:"submit_subject,omitempty"`
	ProcessedSubject string        `json:"processed_subject,omitempty"`

	OTelCollectorURL string `json:"otel_collector_url,omitempty"`

	TermsFile       string `json:"terms_file,omitempty"`
	PipelineWorkers int    `json:"pipeline_workers,omitempty"`
	LogLevel        string `json:"log_level,omitempty"`

	// ScrapeUseBrowser renders scraped pages with a headless browser.
	ScrapeUseBrowser bool `json:"scrape_use_browser,omitempty"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Env:                    "production",
		Port:                   3000,
		StoreBackend:           BackendFile,
		StorePath:              "experiences.json",
		ClickHouseDSN:          "localhost:9000",
		ClickHouseUsername:     "default",
		ClickHouseDatabase:     "interview_insights",
		ClickHouseMaxOpenConns: 10,
		ClickHouseMaxIdleConns: 5,
		ClickHouseConnMaxLife:  time.Hour,
		StatsCacheTTL:          5 * time.Minute,
		NATSConnTimeout:        10 * time.Second,
		SubmitSubject:          "experiences.submitted",
		ProcessedSubject:       "experiences.processed",
		PipelineWorkers:        4,
		LogLevel:               "info",
	}
}

// Load reads the configuration from environment variables over the defaults.
func Load() (*Config, error) {
	cfg := Defaults()
	applyEnv(&cfg)
	return &cfg, cfg.Validate()
}

// LoadFile reads a JSON config file over the defaults, then applies
// environment overrides. An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	applyEnv(&cfg)
	return &cfg, cfg.Validate()
}

func applyEnv(c *Config) {
	c.Env = getEnvString("ENV", c.Env)
	c.Port = getEnvInt("PORT", c.Port)

	c.StoreBackend = strings.ToLower(getEnvString("STORE_BACKEND", c.StoreBackend))
	c.StorePath = getEnvString("STORE_PATH", c.StorePath)
	c.DatabaseURL = getEnvString("DATABASE_URL", c.DatabaseURL)

	c.ClickHouseDSN = getEnvString("CLICKHOUSE_DSN", c.ClickHouseDSN)
	c.ClickHouseUsername = getEnvString("CLICKHOUSE_USERNAME", c.ClickHouseUsername)
	c.ClickHousePassword = getEnvString("CLICKHOUSE_PASSWORD", c.ClickHousePassword)
	c.ClickHouseDatabase = getEnvString("CLICKHOUSE_DATABASE", c.ClickHouseDatabase)
	c.ClickHouseMaxOpenConns = getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", c.ClickHouseMaxOpenConns)
	c.ClickHouseMaxIdleConns = getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", c.ClickHouseMaxIdleConns)
	c.ClickHouseConnMaxLife = getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", c.ClickHouseConnMaxLife)

	c.RedisAddr = getEnvString("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnvString("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.StatsCacheTTL = getEnvDuration("STATS_CACHE_TTL", c.StatsCacheTTL)

	c.NATSURL = getEnvString("NATS_URL", c.NATSURL)
	c.NATSConnTimeout = getEnvDuration("NATS_CONN_TIMEOUT", c.NATSConnTimeout)
	c.SubmitSubject = getEnvString("SUBMIT_SUBJECT", c.SubmitSubject)
	c.ProcessedSubject = getEnvString("PROCESSED_SUBJECT", c.ProcessedSubject)

	c.OTelCollectorURL = getEnvString("OTEL_COLLECTOR_URL", c.OTelCollectorURL)

	c.TermsFile = getEnvString("TERMS_FILE", c.TermsFile)
	c.PipelineWorkers = getEnvInt("PIPELINE_WORKERS", c.PipelineWorkers)
	c.LogLevel = getEnvString("LOG_LEVEL", c.LogLevel)
	c.ScrapeUseBrowser = getEnvBool("SCRAPE_USE_BROWSER", c.ScrapeUseBrowser)
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}
	if c.PipelineWorkers < 1 {
		return fmt.Errorf("config error: 'pipeline_workers' must be at least 1")
	}

	switch c.StoreBackend {
	case BackendFile:
		if c.StorePath == "" {
			return fmt.Errorf("config error: 'store_path' is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres backend")
		}
	case BackendClickHouse:
		if c.ClickHouseDSN == "" {
			return fmt.Errorf("config error: 'clickhouse_dsn' is required for the clickhouse backend")
		}
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.StoreBackend)
	}

	if c.NATSURL != "" && (c.SubmitSubject == "" || c.ProcessedSubject == "") {
		return fmt.Errorf("config error: NATS subjects must be set when 'nats_url' is")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
