package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Session store kinds.
const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Cache     CacheConfig     `yaml:"cache"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	NATS      NATSConfig      `yaml:"nats"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logger    LoggerConfig    `yaml:"logger"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BackendConfig describes the marketplace REST backend.
type BackendConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	RefreshPath string        `yaml:"refresh_path"`
}

// CacheConfig holds the per-session request cache settings.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	Store       string        `yaml:"store"`
	CookieName  string        `yaml:"cookie_name"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"name"`
	MaxConnections  int    `yaml:"max_connections"`
	MinConnections  int    `yaml:"min_connections"`
	MaxConnLifetime int    `yaml:"max_conn_lifetime"` // seconds
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NATSConfig holds the cross-instance notification channel settings.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// GeocodingConfig holds the reverse geocoding provider settings.
type GeocodingConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

// SnapshotConfig holds the catalogue snapshot source.
type SnapshotConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	S3Enabled bool   `yaml:"s3_enabled"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"` // Path prefix within bucket (e.g., "snapshots/")
}

// BreakerConfig holds circuit breaker settings for backend calls.
type BreakerConfig struct {
	MaxFailures int           `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Backend: BackendConfig{
			BaseURL:     "https://api.ordereasy.win/api/",
			Timeout:     15 * time.Second,
			RefreshPath: "auth/token/refresh/",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Session: SessionConfig{
			Store:       SessionStoreMemory,
			CookieName:  "sf_session",
			IdleTimeout: 30 * time.Minute,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Database:        "storefront",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: 300,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "storefront.fcm_updates",
		},
		Geocoding: GeocodingConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "storefront/1.0",
		},
		Snapshot: SnapshotConfig{
			Path:   "data/snapshot/catalogue.jsonl.gz",
			Region: "us-east-1",
			Prefix: "snapshots/",
		},
		Breaker: BreakerConfig{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
		Tracing: TracingConfig{
			ServiceName: "storefront",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from an optional YAML file named by
// STOREFRONT_CONFIG, then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile decodes a YAML configuration file over cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)

	cfg.Backend.BaseURL = getEnv("API_BASE_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = getEnvAsDuration("API_TIMEOUT", cfg.Backend.Timeout)
	cfg.Backend.RefreshPath = getEnv("API_REFRESH_PATH", cfg.Backend.RefreshPath)

	cfg.Cache.TTL = getEnvAsDuration("CACHE_TTL", cfg.Cache.TTL)

	cfg.Session.Store = getEnv("SESSION_STORE", cfg.Session.Store)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE", cfg.Session.CookieName)
	cfg.Session.IdleTimeout = getEnvAsDuration("SESSION_IDLE_TIMEOUT", cfg.Session.IdleTimeout)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.MaxConnections = getEnvAsInt("DB_MAX_CONNECTIONS", cfg.Database.MaxConnections)
	cfg.Database.MinConnections = getEnvAsInt("DB_MIN_CONNECTIONS", cfg.Database.MinConnections)
	cfg.Database.MaxConnLifetime = getEnvAsInt("DB_MAX_CONN_LIFETIME", cfg.Database.MaxConnLifetime)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)

	cfg.NATS.Enabled = getEnvAsBool("NATS_ENABLED", cfg.NATS.Enabled)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", cfg.NATS.SubjectPrefix)

	cfg.Geocoding.BaseURL = getEnv("GEOCODING_BASE_URL", cfg.Geocoding.BaseURL)
	cfg.Geocoding.UserAgent = getEnv("GEOCODING_USER_AGENT", cfg.Geocoding.UserAgent)

	cfg.Snapshot.Enabled = getEnvAsBool("SNAPSHOT_ENABLED", cfg.Snapshot.Enabled)
	cfg.Snapshot.Path = getEnv("SNAPSHOT_PATH", cfg.Snapshot.Path)
	cfg.Snapshot.S3Enabled = getEnvAsBool("S3_ENABLED", cfg.Snapshot.S3Enabled)
	cfg.Snapshot.Bucket = getEnv("S3_BUCKET", cfg.Snapshot.Bucket)
	cfg.Snapshot.Region = getEnv("S3_REGION", cfg.Snapshot.Region)
	cfg.Snapshot.Prefix = getEnv("S3_PREFIX", cfg.Snapshot.Prefix)

	cfg.Breaker.MaxFailures = getEnvAsInt("BREAKER_MAX_FAILURES", cfg.Breaker.MaxFailures)
	cfg.Breaker.OpenTimeout = getEnvAsDuration("BREAKER_OPEN_TIMEOUT", cfg.Breaker.OpenTimeout)

	cfg.Tracing.Enabled = getEnvAsBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = getEnv("LOG_FORMAT", cfg.Logger.Format)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %s", c.Backend.BaseURL)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}

	if c.Backend.RefreshPath == "" {
		return fmt.Errorf("token refresh path is required")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when session store is redis")
		}
	default:
		return fmt.Errorf("invalid session store: %s (must be memory, postgres, or redis)", c.Session.Store)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return fmt.Errorf("NATS URL is required when NATS is enabled")
		}
		if c.NATS.SubjectPrefix == "" {
			return fmt.Errorf("NATS subject prefix is required when NATS is enabled")
		}
	}

	if c.Geocoding.BaseURL == "" {
		return fmt.Errorf("geocoding base URL is required")
	}

	if c.Snapshot.S3Enabled {
		if c.Snapshot.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.Snapshot.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Breaker.MaxFailures < 1 {
		return fmt.Errorf("breaker max failures must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
