package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

var (
	errInvalidPort    = errors.New("config: invalid PORT number")
	errInvalidTimeout = errors.New("config: FETCH_TIMEOUT_SECONDS must be 1-120")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port                string `mapstructure:"PORT"`
	LogLevel            string `mapstructure:"LOG_LEVEL"`
	FetchTimeoutSeconds int    `mapstructure:"FETCH_TIMEOUT_SECONDS"`

	// Redis persistence. An empty address selects the in-memory store.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 10)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.FetchTimeoutSeconds < 1 || c.FetchTimeoutSeconds > 120 {
		return fmt.Errorf("%w: got %d", errInvalidTimeout, c.FetchTimeoutSeconds)
	}

	return nil
}
