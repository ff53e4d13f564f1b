package models

// MConfig Structure
type MConfig struct {
	Name       string           `yaml:"name"`
	LogLevel   string           `yaml:"log_level"`
	LogFile    string           `yaml:"log_file"`
	BackendURL string           `yaml:"backend_url"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	GrpcHost   string           `yaml:"grpc_host"`
	GrpcPort   int              `yaml:"grpc_port"`
	Storage    MStorageConfig   `yaml:"storage"`
	Network    MNetworkConfig   `yaml:"network"`
	Dashboard  MDashboardConfig `yaml:"dashboard"`
}

type MStorageConfig struct {
	TokenStore            string `yaml:"token_store"` // file, sqlite, postgres, redis
	TokenKey              string `yaml:"token_key"`
	TokenPath             string `yaml:"token_path"`
	DBType                string `yaml:"db_type"` // snapshot archive: sqlite, postgres, none
	DBPath                string `yaml:"db_path"`
	DBConnectionString    string `yaml:"db_connection_string"`
	RedisURL              string `yaml:"redis_url"`
	SnapshotRetentionDays int    `yaml:"snapshot_retention_days"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	RetryBaseDelayMs   int      `yaml:"retry_base_delay_ms"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second"`
	UserAgent          string   `yaml:"user_agent"`
}

type MDashboardConfig struct {
	Symbols                []string `yaml:"symbols"`
	RotationSeconds        int      `yaml:"rotation_seconds"`
	TickIntervalMs         int      `yaml:"tick_interval_ms"`
	RefreshIntervalSeconds int      `yaml:"refresh_interval_seconds"`
	NewsCategory           string   `yaml:"news_category"`
	NewsCountry            string   `yaml:"news_country"`
}
