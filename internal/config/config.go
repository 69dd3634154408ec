// Package config loads service and client settings from defaults, an
// optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for the server and the CLI client.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	CORS     CORSConfig     `mapstructure:"cors"`
	DB       DBConfig       `mapstructure:"db"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Client   ClientConfig   `mapstructure:"client"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxConnections  int           `mapstructure:"max_connections"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig selects the analytics store. An empty Driver disables it.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

type AnalysisConfig struct {
	DefaultStrategy string `mapstructure:"default_strategy"`
	SuggestLimit    int    `mapstructure:"suggest_limit"`
	Timezone        string `mapstructure:"timezone"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var (
	ErrInvalidDriver    = errors.New("db.driver must be empty, postgres or sqlite")
	ErrMissingDBName    = errors.New("db.name is required for postgres")
	ErrInvalidLogLevel  = errors.New("logging.level must be debug, info, warn or error")
	ErrInvalidLogFormat = errors.New("logging.format must be json or text")
	ErrInvalidStrategy  = errors.New("analysis.default_strategy must be smart, fastest, impact or deadline")
	ErrInvalidLimit     = errors.New("analysis.suggest_limit must be positive")
	ErrInvalidTimezone  = errors.New("analysis.timezone is not a known location")
	ErrMissingAddr      = errors.New("server.addr is required")
)

// envBindings keeps the plain variable names operators already use.
var envBindings = map[string]string{
	"server.addr":               "ADDR",
	"server.max_connections":    "MAX_CONNECTIONS",
	"server.read_timeout":       "READ_TIMEOUT",
	"server.write_timeout":      "WRITE_TIMEOUT",
	"server.shutdown_timeout":   "SHUTDOWN_TIMEOUT",
	"server.max_body_bytes":     "MAX_BODY_BYTES",
	"cors.allowed_origins":      "CORS_ALLOWED_ORIGINS",
	"db.driver":                 "DB_DRIVER",
	"db.host":                   "DB_HOST",
	"db.port":                   "DB_PORT",
	"db.user":                   "DB_USER",
	"db.password":               "DB_PASSWORD",
	"db.name":                   "DB_NAME",
	"db.sslmode":                "DB_SSLMODE",
	"db.path":                   "DB_PATH",
	"logging.level":             "LOG_LEVEL",
	"logging.format":            "LOG_FORMAT",
	"logging.path":              "LOG_PATH",
	"analysis.default_strategy": "DEFAULT_STRATEGY",
	"analysis.suggest_limit":    "SUGGEST_LIMIT",
	"analysis.timezone":         "ANALYSIS_TIMEZONE",
	"client.base_url":           "API_URL",
	"client.timeout":            "CLIENT_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.max_connections", 0)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", int64(1<<20))
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("db.driver", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432) // fallback
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "taskprio.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.path", "")

	v.SetDefault("analysis.default_strategy", "smart")
	v.SetDefault("analysis.suggest_limit", 3)
	v.SetDefault("analysis.timezone", "Local")

	v.SetDefault("client.base_url", "http://127.0.0.1:8000/api/tasks")
	v.SetDefault("client.timeout", 30*time.Second)
}

// Default returns the configuration with no file and no environment applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration. path may be empty; a named file must exist.
// Environment variables override file values, which override defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return ErrMissingAddr
	}

	switch cfg.DB.Driver {
	case "", "sqlite":
	case "postgres":
		if cfg.DB.Name == "" {
			return ErrMissingDBName
		}
	default:
		return ErrInvalidDriver
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "", "json", "text":
	default:
		return ErrInvalidLogFormat
	}

	switch cfg.Analysis.DefaultStrategy {
	case "", "smart", "fastest", "impact", "deadline":
	default:
		return ErrInvalidStrategy
	}

	if cfg.Analysis.SuggestLimit < 0 {
		return ErrInvalidLimit
	}

	if _, err := cfg.Location(); err != nil {
		return ErrInvalidTimezone
	}

	return nil
}

// Location resolves analysis.timezone; due dates are compared in it.
func (c *Config) Location() (*time.Location, error) {
	switch c.Analysis.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Analysis.Timezone)
	}
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

// DSN returns the data source for the configured driver.
func (c *Config) DSN() string {
	if c.DB.Driver == "sqlite" {
		return c.DB.Path
	}
	return c.ConnString()
}
