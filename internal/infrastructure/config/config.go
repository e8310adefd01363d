package config

import (
	"fmt"
	"time"
)

// Config holds all runtime settings. Durations arrive as YAML strings in the
// *Str fields and are resolved by Load; the parsed fields are tagged out of
// the YAML namespace so the two never share a key.
type Config struct {
	Server struct {
		Port               int    `yaml:"port"`
		Debug              bool   `yaml:"debug"`
		ReadTimeoutStr     string        `yaml:"read_timeout"`
		WriteTimeoutStr    string        `yaml:"write_timeout"`
		ShutdownTimeoutStr string        `yaml:"shutdown_timeout"`
		ReadTimeout        time.Duration `yaml:"-"`
		WriteTimeout       time.Duration `yaml:"-"`
		ShutdownTimeout    time.Duration `yaml:"-"`
	} `yaml:"server"`

	PostgreSQL struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		User         string `yaml:"user"`
		Password     string `yaml:"password"`
		Database     string `yaml:"database"`
		SSLMode      string `yaml:"sslmode"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"postgresql"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	CoinGecko struct {
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		VsCurrency        string `yaml:"vs_currency"`
		PerPage           int    `yaml:"per_page"`
		MaxRetries        int    `yaml:"max_retries"`
		RequestTimeoutStr string        `yaml:"request_timeout"`
		RetryDelayStr     string        `yaml:"retry_delay"`
		RequestTimeout    time.Duration `yaml:"-"`
		RetryDelay        time.Duration `yaml:"-"`
	} `yaml:"coingecko"`

	Sync struct {
		IntervalStr string        `yaml:"interval"`
		Workers     int           `yaml:"workers"`
		Interval    time.Duration `yaml:"-"`
	} `yaml:"sync"`

	Cache struct {
		TopTTLStr   string        `yaml:"top_ttl"`
		StatsTTLStr string        `yaml:"stats_ttl"`
		TopTTL      time.Duration `yaml:"-"`
		StatsTTL    time.Duration `yaml:"-"`
	} `yaml:"cache"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host, c.PostgreSQL.Port, c.PostgreSQL.User,
		c.PostgreSQL.Password, c.PostgreSQL.Database, c.PostgreSQL.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Validate checks the parts that have no safe default.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.PostgreSQL.Host == "" || c.PostgreSQL.Database == "" {
		return fmt.Errorf("postgresql host and database must be set")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host must be set")
	}
	if c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko base_url must be set")
	}
	if c.CoinGecko.PerPage <= 0 || c.CoinGecko.PerPage > 250 {
		return fmt.Errorf("coingecko per_page must be between 1 and 250, got %d", c.CoinGecko.PerPage)
	}
	if c.CoinGecko.MaxRetries < 0 {
		return fmt.Errorf("coingecko max_retries cannot be negative")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync interval must be greater than 0")
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync workers must be greater than 0")
	}
	if c.Cache.TopTTL <= 0 || c.Cache.StatsTTL <= 0 {
		return fmt.Errorf("cache TTLs must be greater than 0")
	}
	return nil
}
