package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/km-arc/go-ioc/framework/container"
)

// Config is the central typed configuration struct.
// Embed or extend it in your app's own AppConfig.
type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Container ContainerConfig
}

type AppConfig struct {
	Name  string `validate:"required"`
	Env   string `validate:"oneof=local production testing"`
	Debug bool
	URL   string `validate:"omitempty,url"`
	Port  string `validate:"required,numeric"`
	Key   string
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

type DatabaseConfig struct {
	// Connection is memory | sqlite | mysql | postgres; empty means memory.
	Connection   string `validate:"omitempty,oneof=memory sqlite mysql postgres"`
	DSN          string
	MaxOpenConns int `validate:"gte=0"`
}

// InMemory reports whether no database is configured.
func (d DatabaseConfig) InMemory() bool {
	return d.Connection == "" || d.Connection == "memory"
}

type ContainerConfig struct {
	// RebindPolicy is what registering an already-bound key does:
	// overwrite | refresh | reject.
	RebindPolicy string `validate:"omitempty,oneof=overwrite refresh reject"`
	// MetricsPath is where the container metrics are served; empty disables.
	MetricsPath string `validate:"omitempty,startswith=/"`
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoIoC"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			URL:   env("APP_URL", "http://localhost"),
			Port:  env("APP_PORT", "8000"),
			Key:   env("APP_KEY", ""),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Connection:   env("DB_CONNECTION", "memory"),
			DSN:          env("DB_DSN", ""),
			MaxOpenConns: GetInt("DB_MAX_OPEN_CONNS", 0),
		},
		Container: ContainerConfig{
			RebindPolicy: env("IOC_REBIND_POLICY", "overwrite"),
			MetricsPath:  env("IOC_METRICS_PATH", "/metrics"),
		},
	}
}

// Validate checks the loaded values against their `validate` tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// Policy parses Container.RebindPolicy.
func (c ContainerConfig) Policy() (container.RebindPolicy, error) {
	return container.ParseRebindPolicy(c.RebindPolicy)
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
