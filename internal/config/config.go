package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	SummaryModeAsync = "async"
	SummaryModeSync  = "sync"

	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	LLM      LLMConfig      `toml:"llm"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	Summary  SummaryConfig  `toml:"summary"`
}

type AppConfig struct {
	Name      string `toml:"name" env:"APP_NAME"`
	Env       string `toml:"env" env:"APP_ENV"`
	Host      string `toml:"host" env:"APP_HOST"`
	Port      int    `toml:"port" env:"APP_PORT"`
	GinMode   string `toml:"gin_mode" env:"GIN_MODE"`
	StaticDir string `toml:"static_dir" env:"APP_STATIC_DIR"`
}

// LLMConfig points at an Azure OpenAI deployment. Model is the deployment name.
type LLMConfig struct {
	APIKey         string `toml:"api_key" env:"AZURE_OPENAI_API_KEY"`
	Endpoint       string `toml:"endpoint" env:"AZURE_OPENAI_ENDPOINT"`
	APIVersion     string `toml:"api_version" env:"AZURE_OPENAI_API_VERSION"`
	Model          string `toml:"model" env:"AZURE_OPENAI_MODEL"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS"`
	MaxTokens      int    `toml:"max_tokens" env:"LLM_MAX_TOKENS"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver" env:"DATABASE_DRIVER"`
	DSN    string `toml:"dsn" env:"DATABASE_DSN"`
}

type RedisConfig struct {
	Enabled                bool   `toml:"enabled" env:"REDIS_ENABLED"`
	Addr                   string `toml:"addr" env:"REDIS_ADDR"`
	Password               string `toml:"password" env:"REDIS_PASSWORD"`
	DB                     int    `toml:"db" env:"REDIS_DB"`
	HistoryTTLSeconds      int    `toml:"history_ttl_seconds" env:"REDIS_HISTORY_TTL_SECONDS"`
	HistoryDirtyTTLSeconds int    `toml:"history_dirty_ttl_seconds" env:"REDIS_HISTORY_DIRTY_TTL_SECONDS"`
}

// RabbitMQConfig enables the broker-backed summary queue when URL is set.
type RabbitMQConfig struct {
	URL          string `toml:"url" env:"RABBITMQ_URL"`
	SummaryQueue string `toml:"summary_queue" env:"RABBITMQ_SUMMARY_QUEUE"`
}

type SummaryConfig struct {
	Mode           string `toml:"mode" env:"SUMMARY_MODE"`
	Workers        int    `toml:"workers" env:"SUMMARY_WORKERS"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"SUMMARY_TIMEOUT_SECONDS"`
}

const defaultConfigPath = "configs/config.toml"

// Load builds the configuration from defaults, a TOML file, an optional .env
// file and the process environment, in that order. A path given explicitly,
// as an argument or through CONFIG_FILE, must exist; the default
// configs/config.toml is optional.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := true
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = defaultConfigPath
		explicit = false
	}

	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file %s failed: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config file failed: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env file failed: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing LLM setting in a single error.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"AZURE_OPENAI_API_KEY", c.LLM.APIKey},
		{"AZURE_OPENAI_ENDPOINT", c.LLM.Endpoint},
		{"AZURE_OPENAI_API_VERSION", c.LLM.APIVersion},
		{"AZURE_OPENAI_MODEL", c.LLM.Model},
	}

	var missing []string
	for _, item := range required {
		if strings.TrimSpace(item.value) == "" {
			missing = append(missing, item.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Summary.Mode {
	case SummaryModeAsync, SummaryModeSync:
	default:
		return fmt.Errorf("unsupported summary mode %q", c.Summary.Mode)
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) LLMTimeout() time.Duration {
	return seconds(c.LLM.TimeoutSeconds, 60)
}

func (c *Config) SummaryTimeout() time.Duration {
	return seconds(c.Summary.TimeoutSeconds, 60)
}

func (c *Config) HistoryTTL() time.Duration {
	return seconds(c.Redis.HistoryTTLSeconds, 60)
}

func (c *Config) HistoryDirtyTTL() time.Duration {
	return seconds(c.Redis.HistoryDirtyTTLSeconds, 5)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      "chatrelay",
			Env:       "dev",
			Host:      "0.0.0.0",
			Port:      5000,
			GinMode:   "release",
			StaticDir: "web",
		},
		LLM: LLMConfig{
			TimeoutSeconds: 60,
			MaxTokens:      4000,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "chat_history.db",
		},
		Redis: RedisConfig{
			Enabled:                false,
			Addr:                   "127.0.0.1:6379",
			DB:                     0,
			HistoryTTLSeconds:      60,
			HistoryDirtyTTLSeconds: 5,
		},
		RabbitMQ: RabbitMQConfig{
			SummaryQueue: "chat.summary",
		},
		Summary: SummaryConfig{
			Mode:           SummaryModeAsync,
			Workers:        2,
			TimeoutSeconds: 60,
		},
	}
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
