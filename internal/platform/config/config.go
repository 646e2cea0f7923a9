// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "CONFIG_FILE"

// Config is the service configuration.
type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	TrustedProxies []string      `yaml:"trusted_proxies"`
	DatabaseURL    string        `yaml:"database_url"`
	Auth           AuthConfig    `yaml:"auth"`
	Redis          RedisConfig   `yaml:"redis"`
	TankAlert      TankAlert     `yaml:"tank_alert"`
	Reports        ReportsConfig `yaml:"reports"`
	LogLevel       string        `yaml:"log_level"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// RedisConfig configures the reference data cache. An empty Addr keeps the
// cache in process memory.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// TankAlert configures low tank notifications.
type TankAlert struct {
	WebhookURL     string        `yaml:"webhook_url"`
	Template       string        `yaml:"template"`
	WarningLiters  float64       `yaml:"warning_liters"`
	CriticalLiters float64       `yaml:"critical_liters"`
	DedupeWindow   time.Duration `yaml:"dedupe_window"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ReportsConfig tunes report building.
type ReportsConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Auth: AuthConfig{
			TokenTTL: time.Hour,
		},
		Redis: RedisConfig{
			CacheTTL: 5 * time.Minute,
		},
		TankAlert: TankAlert{
			WarningLiters:  100,
			CriticalLiters: 30,
			DedupeWindow:   time.Hour,
			RequestTimeout: 5 * time.Second,
		},
		Reports:  ReportsConfig{Concurrency: 4},
		LogLevel: "info",
	}
}

// Load builds the configuration. path overrides CONFIG_FILE when set.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: decode yaml: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.Auth.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.Auth.JWTSecret))
	cfg.Redis.Addr = getenvDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.TankAlert.WebhookURL = getenvDefault("TANK_ALERT_WEBHOOK_URL", cfg.TankAlert.WebhookURL)
	cfg.TankAlert.Template = getenvDefault("TANK_ALERT_TEMPLATE", cfg.TankAlert.Template)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.TrustedProxies = getenvList("TRUSTED_PROXIES", cfg.TrustedProxies)

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	collect(getenvDuration("AUTH_TOKEN_TTL", &cfg.Auth.TokenTTL))
	collect(getenvDuration("REFERENCE_CACHE_TTL", &cfg.Redis.CacheTTL))
	collect(getenvDuration("TANK_ALERT_DEDUPE_WINDOW", &cfg.TankAlert.DedupeWindow))
	collect(getenvDuration("TANK_ALERT_TIMEOUT", &cfg.TankAlert.RequestTimeout))
	collect(getenvFloat("TANK_WARNING_LITERS", &cfg.TankAlert.WarningLiters))
	collect(getenvFloat("TANK_CRITICAL_LITERS", &cfg.TankAlert.CriticalLiters))
	collect(getenvInt("BCRYPT_COST", &cfg.Auth.BcryptCost))
	collect(getenvInt("REPORT_CONCURRENCY", &cfg.Reports.Concurrency))
	return errors.Join(errs...)
}

// Validate checks settings required to serve HTTP.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("config: DATABASE_URL or PG_DSN is required"))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("config: AUTH_JWT_SECRET is required"))
	}
	if c.TankAlert.CriticalLiters > c.TankAlert.WarningLiters {
		errs = append(errs, errors.New("config: critical tank level above warning level"))
	}
	return errors.Join(errs...)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// getenvList splits a comma separated value, dropping empty items.
func getenvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvDuration(key string, dst *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func getenvFloat(key string, dst *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func getenvInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*dst = parsed
	return nil
}
