package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Backend BackendConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Orders  OrdersConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// BackendConfig holds the connection settings for the retail backend, the
// source of truth for orders and staff
type BackendConfig struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
	WarmLedger     bool // fetch all orders into the local ledger at startup
}

// RedisConfig holds Redis connection settings for the idempotency store
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds settings for validating staff session tokens. Tokens are
// issued by the backend; this service only verifies them.
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// OrdersConfig holds order-domain policy settings
type OrdersConfig struct {
	MinimumPaymentPercentage int           // default threshold for partial-payment fulfillment
	IdempotencyTTL           time.Duration // how long processed Idempotency-Key values are remembered
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RETAILOPS_ prefix (e.g., RETAILOPS_BACKEND_API_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("RETAILOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Backend: BackendConfig{
			BaseURL:        v.GetString("backend.base_url"),
			APIToken:       v.GetString("backend.api_token"),
			TimeoutSeconds: v.GetInt("backend.timeout_seconds"),
			WarmLedger:     v.GetBool("backend.warm_ledger"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Orders: OrdersConfig{
			MinimumPaymentPercentage: v.GetInt("orders.minimum_payment_percentage"),
			IdempotencyTTL:           v.GetDuration("orders.idempotency_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "retailops-core"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:9000/api"
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 15
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "retailops-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Orders.MinimumPaymentPercentage == 0 {
		cfg.Orders.MinimumPaymentPercentage = 70
	}
	if cfg.Orders.IdempotencyTTL == 0 {
		cfg.Orders.IdempotencyTTL = 24 * time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds cannot be negative")
	}
	if c.Orders.MinimumPaymentPercentage < 0 || c.Orders.MinimumPaymentPercentage > 100 {
		return fmt.Errorf("orders.minimum_payment_percentage must be between 0 and 100, got %d",
			c.Orders.MinimumPaymentPercentage)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Backend.APIToken == "" {
			return fmt.Errorf("backend.api_token is required in production")
		}
		if strings.HasPrefix(c.Backend.BaseURL, "http://") {
			return fmt.Errorf("backend.base_url must use https in production")
		}
	}

	return nil
}
