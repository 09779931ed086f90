// Package config loads process configuration from INVENTORY_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "INVENTORY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv           = "INVENTORY_APP_ENV"
	EnvLogLevel         = "INVENTORY_LOG_LEVEL"
	EnvLogFormat        = "INVENTORY_LOG_FORMAT"
	EnvLogWarnStack     = "INVENTORY_LOG_WARN_STACK"
	EnvDBPath           = "INVENTORY_DB_PATH"
	EnvDBBusyTimeout    = "INVENTORY_DB_BUSY_TIMEOUT"
	EnvHTTPPort         = "INVENTORY_HTTP_PORT"
	EnvHTTPReadTimeout  = "INVENTORY_HTTP_READ_TIMEOUT"
	EnvHTTPWriteTimeout = "INVENTORY_HTTP_WRITE_TIMEOUT"
	EnvHTTPIdleTimeout  = "INVENTORY_HTTP_IDLE_TIMEOUT"
	EnvAllowedOrigins   = "INVENTORY_HTTP_ALLOWED_ORIGINS"
	EnvArchiveInterval  = "INVENTORY_ARCHIVE_INTERVAL"
	EnvCurrencySymbol   = "INVENTORY_CURRENCY_SYMBOL"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	HTTP    HTTPConfig
	Archive ArchiveConfig
	Report  ReportConfig
}

// Load reads the environment. Every variable has a default.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INVENTORY_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"INVENTORY_LOG_LEVEL" default:"warn"`
	LogFormat    string `envconfig:"INVENTORY_LOG_FORMAT" default:"console"`
	LogWarnStack bool   `envconfig:"INVENTORY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Path        string        `envconfig:"INVENTORY_DB_PATH" default:"inventory.db"`
	BusyTimeout time.Duration `envconfig:"INVENTORY_DB_BUSY_TIMEOUT" default:"5s"`
}

type HTTPConfig struct {
	Port           string        `envconfig:"INVENTORY_HTTP_PORT" default:"8080"`
	ReadTimeout    time.Duration `envconfig:"INVENTORY_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"INVENTORY_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout    time.Duration `envconfig:"INVENTORY_HTTP_IDLE_TIMEOUT" default:"60s"`
	AllowedOrigins []string      `envconfig:"INVENTORY_HTTP_ALLOWED_ORIGINS"`
}

// Addr returns the listen address for the HTTP server.
func (h HTTPConfig) Addr() string {
	return ":" + h.Port
}

type ArchiveConfig struct {
	// Interval between scheduled archive runs; zero disables the scheduler.
	Interval time.Duration `envconfig:"INVENTORY_ARCHIVE_INTERVAL" default:"0"`
}

func (a ArchiveConfig) Enabled() bool {
	return a.Interval > 0
}

type ReportConfig struct {
	CurrencySymbol string `envconfig:"INVENTORY_CURRENCY_SYMBOL" default:"₹"`
}

func (c *Config) validate() error {
	switch strings.ToLower(c.App.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("%s must be json or console, got %q", EnvLogFormat, c.App.LogFormat)
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		return fmt.Errorf("%s must not be empty", EnvDBPath)
	}
	if c.DB.BusyTimeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvDBBusyTimeout)
	}
	if c.Archive.Interval < 0 {
		return fmt.Errorf("%s must not be negative", EnvArchiveInterval)
	}
	return nil
}
