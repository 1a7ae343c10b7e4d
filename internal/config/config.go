// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env             string  `mapstructure:"APP_ENV"`
	LogLevel        string  `mapstructure:"LOG_LEVEL"`
	StorageDriver   string  `mapstructure:"STORAGE_DRIVER"`
	StoragePath     string  `mapstructure:"STORAGE_PATH"`
	StorageKey      string  `mapstructure:"STORAGE_KEY"`
	LanguageKey     string  `mapstructure:"LANGUAGE_KEY"`
	RedisURL        string  `mapstructure:"REDIS_URL"`
	RedisPrefix     string  `mapstructure:"REDIS_PREFIX"`
	DatabaseDSN     string  `mapstructure:"DATABASE_DSN"`
	FeatureFlags    string  `mapstructure:"FEATURE_FLAGS"`
	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", DriverFile)
	viper.SetDefault("STORAGE_PATH", "data")
	viper.SetDefault("STORAGE_KEY", "post-farming-data")
	viper.SetDefault("LANGUAGE_KEY", "app-language")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("REDIS_PREFIX", "postfarm")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("FEATURE_FLAGS", "first_load_writeback=on")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.StorageKey == "" {
		return errors.New("STORAGE_KEY is required")
	}
	if c.LanguageKey == "" {
		return errors.New("LANGUAGE_KEY is required")
	}
	if c.StorageKey == c.LanguageKey {
		return errors.New("STORAGE_KEY and LANGUAGE_KEY must differ")
	}

	switch c.StorageDriver {
	case DriverMemory:
	case DriverFile:
		if c.StoragePath == "" {
			return errors.New("STORAGE_PATH is required for the file driver")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis driver")
		}
	case DriverSQLite:
		if c.DatabaseDSN == "" && c.StoragePath == "" {
			return errors.New("DATABASE_DSN or STORAGE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.TracingEnabled && c.TracingExporter == "otlp" && c.OTLPEndpoint == "" {
		return errors.New("OTLP_ENDPOINT is required when TRACING_EXPORTER is otlp")
	}

	if c.Env == "production" && c.StorageDriver == DriverMemory {
		log.Println("WARNING: STORAGE_DRIVER is 'memory' in production. State will not survive a restart.")
	}

	return nil
}
