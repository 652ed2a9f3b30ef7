package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	SecretKey     string `mapstructure:"SECRET_KEY"`
	ServerAddr    string `mapstructure:"SERVER_ADDR"`
	SessionSecure bool   `mapstructure:"SESSION_SECURE"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	StatsTTL      time.Duration `mapstructure:"STATS_TTL"`

	TimelineLimit int    `mapstructure:"TIMELINE_LIMIT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	Debug         bool   `mapstructure:"DEBUG"`
}

// devSecretKey signs session cookies when DEBUG is on and no key is set.
const devSecretKey = "warbler-development-key"

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_DRIVER", "sqlite3")
	v.SetDefault("DATABASE_URL", "warbler.db")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("SERVER_ADDR", ":5000")
	v.SetDefault("SESSION_SECURE", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STATS_TTL", 5*time.Minute)
	v.SetDefault("TIMELINE_LIMIT", 100)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG", false)
}

// Load reads envFile (when it exists) and the process environment.
// Environment variables win over the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported", c.DatabaseDriver)
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.SecretKey == "" {
		if !c.Debug {
			return fmt.Errorf("SECRET_KEY is required")
		}
		c.SecretKey = devSecretKey
	}

	if c.TimelineLimit <= 0 {
		return fmt.Errorf("TIMELINE_LIMIT must be positive")
	}

	if c.StatsTTL <= 0 {
		return fmt.Errorf("STATS_TTL must be positive")
	}

	return nil
}
