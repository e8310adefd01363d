package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config, applies environment overrides on top and
// resolves the duration fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func parseDurations(cfg *Config) error {
	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(cfg.Server.ReadTimeoutStr, 10*time.Second); err != nil {
		return fmt.Errorf("server.read_timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDuration(cfg.Server.WriteTimeoutStr, 10*time.Second); err != nil {
		return fmt.Errorf("server.write_timeout: %w", err)
	}
	if cfg.Server.ShutdownTimeout, err = parseDuration(cfg.Server.ShutdownTimeoutStr, 30*time.Second); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	if cfg.CoinGecko.RequestTimeout, err = parseDuration(cfg.CoinGecko.RequestTimeoutStr, 30*time.Second); err != nil {
		return fmt.Errorf("coingecko.request_timeout: %w", err)
	}
	if cfg.CoinGecko.RetryDelay, err = parseDuration(cfg.CoinGecko.RetryDelayStr, 2*time.Second); err != nil {
		return fmt.Errorf("coingecko.retry_delay: %w", err)
	}
	if cfg.Sync.Interval, err = parseDuration(cfg.Sync.IntervalStr, 10*time.Minute); err != nil {
		return fmt.Errorf("sync.interval: %w", err)
	}
	if cfg.Cache.TopTTL, err = parseDuration(cfg.Cache.TopTTLStr, time.Minute); err != nil {
		return fmt.Errorf("cache.top_ttl: %w", err)
	}
	if cfg.Cache.StatsTTL, err = parseDuration(cfg.Cache.StatsTTLStr, 5*time.Minute); err != nil {
		return fmt.Errorf("cache.stats_ttl: %w", err)
	}
	return nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.PostgreSQL.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.PostgreSQL.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.PostgreSQL.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.PostgreSQL.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.PostgreSQL.Database = v
	}

	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.CoinGecko.BaseURL = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}

	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		cfg.Sync.IntervalStr = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" {
		cfg.Server.Debug = true
	}
}
