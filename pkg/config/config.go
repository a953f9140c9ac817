package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/codehub/pkg/sso"
	"github.com/platinummonkey/codehub/pkg/storage"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the optional YAML file loaded before the environment
const ConfigFileEnv = "CODEHUB_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Storage configuration
	Storage storage.Config `yaml:"storage"`

	// External identity providers
	SSO sso.Config `yaml:"sso"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	SecureCookies   bool          `yaml:"secure_cookies"`

	// Form posts per client address; zero requests disables the limit
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
	RateLimitBurst    int           `yaml:"rate_limit_burst"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// SessionConfig holds session cookie and store settings
type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	Store         string        `yaml:"store"` // "memory", "redis"
	RedisURL      string        `yaml:"redis_url"`
	RedisPoolSize int           `yaml:"redis_pool_size"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text", "json"

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,

			RateLimitRequests: 20,
			RateLimitWindow:   time.Minute,
			RateLimitBurst:    5,
		},
		Session: SessionConfig{
			Store:         "memory",
			RedisPoolSize: 10,
		},
		Storage: storage.DefaultConfig(),
		SSO: sso.Config{
			BaseURL: "http://localhost:8080",
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			LogFormat:          "text",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "codehub",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CODEHUB_CONFIG_FILE, and the environment, in that order of precedence
// from lowest to highest.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path onto c
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto c. The lower-case names are
// accepted for deployments configured before the CODEHUB_ prefix existed.
func (c *Config) loadEnv() {
	c.Server.Host = getEnv("CODEHUB_HOST", c.Server.Host)
	c.Server.Port = getEnv("CODEHUB_PORT", getEnv("PORT", c.Server.Port))
	c.Server.ReadTimeout = getEnvDuration("CODEHUB_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("CODEHUB_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("CODEHUB_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("CODEHUB_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.SecureCookies = getEnvBool("CODEHUB_SECURE_COOKIES", c.Server.SecureCookies)
	c.Server.RateLimitRequests = getEnvInt("CODEHUB_RATE_LIMIT_REQUESTS", c.Server.RateLimitRequests)
	c.Server.RateLimitWindow = getEnvDuration("CODEHUB_RATE_LIMIT_WINDOW", c.Server.RateLimitWindow)
	c.Server.RateLimitBurst = getEnvInt("CODEHUB_RATE_LIMIT_BURST", c.Server.RateLimitBurst)

	c.Session.Secret = getEnv("CODEHUB_SESSION_SECRET", getEnv("secret_key", c.Session.Secret))
	c.Session.TTL = getEnvDuration("CODEHUB_SESSION_TTL", c.Session.TTL)
	c.Session.Store = getEnv("CODEHUB_SESSION_STORE", c.Session.Store)
	c.Session.RedisURL = getEnv("CODEHUB_REDIS_URL", c.Session.RedisURL)
	c.Session.RedisPoolSize = getEnvInt("CODEHUB_REDIS_POOL_SIZE", c.Session.RedisPoolSize)

	c.Storage.Type = getEnv("CODEHUB_STORE_TYPE", c.Storage.Type)
	if dbURL := getEnv("CODEHUB_DATABASE_URL", getEnv("mongo_cloud", "")); dbURL != "" {
		switch c.Storage.Type {
		case "postgres":
			c.Storage.PostgresURL = dbURL
		case "arango":
			c.Storage.ArangoURL = dbURL
		}
	}
	c.Storage.PostgresMaxConns = getEnvInt("CODEHUB_POSTGRES_MAX_CONNS", c.Storage.PostgresMaxConns)
	c.Storage.PostgresMinConns = getEnvInt("CODEHUB_POSTGRES_MIN_CONNS", c.Storage.PostgresMinConns)
	c.Storage.PostgresTimeout = getEnvDuration("CODEHUB_POSTGRES_TIMEOUT", c.Storage.PostgresTimeout)
	c.Storage.ArangoUser = getEnv("CODEHUB_ARANGO_USER", c.Storage.ArangoUser)
	c.Storage.ArangoPassword = getEnv("CODEHUB_ARANGO_PASSWORD", c.Storage.ArangoPassword)
	c.Storage.ArangoDatabase = getEnv("CODEHUB_ARANGO_DATABASE", c.Storage.ArangoDatabase)

	c.SSO.BaseURL = getEnv("CODEHUB_BASE_URL", c.SSO.BaseURL)
	c.SSO.Google.ClientID = getEnv("CODEHUB_GOOGLE_CLIENT_ID", getEnv("google_client_id", c.SSO.Google.ClientID))
	c.SSO.Google.ClientSecret = getEnv("CODEHUB_GOOGLE_CLIENT_SECRET", getEnv("google_client_secret", c.SSO.Google.ClientSecret))
	c.SSO.Facebook.ClientID = getEnv("CODEHUB_FACEBOOK_CLIENT_ID", getEnv("facebook_app_id", c.SSO.Facebook.ClientID))
	c.SSO.Facebook.ClientSecret = getEnv("CODEHUB_FACEBOOK_CLIENT_SECRET", getEnv("facebook_app_secret", c.SSO.Facebook.ClientSecret))
	c.SSO.GitHub.ClientID = getEnv("CODEHUB_GITHUB_CLIENT_ID", getEnv("github_client_id", c.SSO.GitHub.ClientID))
	c.SSO.GitHub.ClientSecret = getEnv("CODEHUB_GITHUB_CLIENT_SECRET", getEnv("github_client_secret", c.SSO.GitHub.ClientSecret))

	c.Observability.LogLevel = getEnv("CODEHUB_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("CODEHUB_LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsEnabled = getEnvBool("CODEHUB_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("CODEHUB_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("CODEHUB_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("CODEHUB_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("CODEHUB_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("CODEHUB_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}
	if c.Server.RateLimitRequests < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	// Validate session config
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session TTL must not be negative")
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis session store")
		}
	default:
		return fmt.Errorf("invalid session store: %s (must be memory or redis)", c.Session.Store)
	}

	// Validate storage config based on type
	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("database URL is required for postgres storage")
		}
	case "arango":
		if c.Storage.ArangoURL == "" {
			return fmt.Errorf("database URL is required for arango storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, postgres, or arango)", c.Storage.Type)
	}

	// Validate base URL, used to build OAuth callback URLs
	base, err := url.Parse(c.SSO.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid base URL: %q", c.SSO.BaseURL)
	}

	// Validate logging config
	switch strings.ToLower(c.Observability.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Observability.LogFormat)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
