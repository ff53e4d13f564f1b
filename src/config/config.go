package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"stocknews-client/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// DefaultSymbols are the landing page stock quotes.
var DefaultSymbols = []string{
	"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA",
	"META", "NVDA", "JPM", "V", "JNJ",
}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, a sibling .env file and the
// STOCKNEWS_* environment.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. .env never overrides variables already exported
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file '%s': %w", envPath, err)
		}
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse decodes YAML content, applies defaults and environment overrides, and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "stocknews-client"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8090
	}
	if c.GrpcPort == 0 {
		c.GrpcPort = 50061
	}

	s := &c.Storage
	if s.TokenStore == "" {
		s.TokenStore = "file"
	}
	if s.TokenKey == "" {
		s.TokenKey = "token"
	}
	if s.TokenPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.TokenPath = filepath.Join(home, ".stocknews", "token.json")
		} else {
			s.TokenPath = "token.json"
		}
	}
	if s.DBType == "" {
		s.DBType = "none"
	}
	if s.SnapshotRetentionDays == 0 {
		s.SnapshotRetentionDays = 7
	}

	n := &c.Network
	if n.RequestTimeout == 0 {
		n.RequestTimeout = 10
	}
	if n.RetryBaseDelayMs == 0 {
		n.RetryBaseDelayMs = 1000
	}
	if n.ConcurrentRequests == 0 {
		n.ConcurrentRequests = 10
	}

	d := &c.Dashboard
	if len(d.Symbols) == 0 {
		d.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if d.RotationSeconds == 0 {
		d.RotationSeconds = 20
	}
	if d.TickIntervalMs == 0 {
		d.TickIntervalMs = 1000
	}
	if d.RefreshIntervalSeconds == 0 {
		d.RefreshIntervalSeconds = 60
	}
	if d.NewsCategory == "" {
		d.NewsCategory = "business"
	}
	if d.NewsCountry == "" {
		d.NewsCountry = "us"
	}
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	c.BackendURL = GetEnvAsString("STOCKNEWS_BACKEND_URL", c.BackendURL)
	c.LogLevel = GetEnvAsString("STOCKNEWS_LOG_LEVEL", c.LogLevel)
	c.Port = GetEnvAsInt("STOCKNEWS_PORT", c.Port)
	c.Storage.TokenStore = GetEnvAsString("STOCKNEWS_TOKEN_STORE", c.Storage.TokenStore)
	c.Storage.RedisURL = GetEnvAsString("STOCKNEWS_REDIS_URL", c.Storage.RedisURL)
	c.Storage.DBConnectionString = GetEnvAsString("STOCKNEWS_DB_CONNECTION_STRING", c.Storage.DBConnectionString)
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Backend
	if c.BackendURL == "" {
		return fmt.Errorf("backend url cannot be empty")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend url: %q", c.BackendURL)
	}

	// Local feed server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort <= 1024 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	// Storage
	switch c.Storage.TokenStore {
	case "file":
		if c.Storage.TokenPath == "" {
			return fmt.Errorf("token path cannot be empty for file token store")
		}
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite token store")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres token store")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("redis url cannot be empty for redis token store")
		}
	default:
		return fmt.Errorf("unknown token store: %q", c.Storage.TokenStore)
	}
	switch c.Storage.DBType {
	case "none":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unknown database type: %q", c.Storage.DBType)
	}
	if c.Storage.SnapshotRetentionDays <= 0 {
		return fmt.Errorf("snapshot retention days must be greater than 0")
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}
	if c.Network.RateLimitPerSecond < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}

	// Dashboard
	if len(c.Dashboard.Symbols) == 0 {
		return fmt.Errorf("at least one dashboard symbol must be configured")
	}
	for i, sym := range c.Dashboard.Symbols {
		if sym == "" {
			return fmt.Errorf("dashboard symbol %d cannot be empty", i)
		}
	}
	if c.Dashboard.RotationSeconds <= 0 {
		return fmt.Errorf("rotation seconds must be greater than 0")
	}
	if c.Dashboard.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be greater than 0")
	}
	if c.Dashboard.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("refresh interval must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Derived durations
// -----------------------------------------------------------------------------

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Network.RequestTimeout) * time.Second
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Dashboard.TickIntervalMs) * time.Millisecond
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Dashboard.RefreshIntervalSeconds) * time.Second
}

// APIBaseURL is the backend URL with the /api prefix.
func (c *Config) APIBaseURL() string {
	base := c.BackendURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/api"
}
