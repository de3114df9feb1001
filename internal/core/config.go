// Package core provides configuration management for the system-optimization monitor
package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all monitor configuration with validation
type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Environment string `yaml:"environment"`
		LogLevel    string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		User           string `yaml:"user"`
		Password       string `yaml:"password"`
		DBName         string `yaml:"dbname"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitor struct {
		HealthInterval   string `yaml:"health_interval"`
		OptimizeInterval string `yaml:"optimize_interval"`
		CacheTTL         string `yaml:"cache_ttl"`
		HistoryRetention int    `yaml:"history_retention"`
	} `yaml:"monitor"`

	Collector struct {
		DiskPath            string  `yaml:"disk_path"`
		NetworkCapacityMbps float64 `yaml:"network_capacity_mbps"`
	} `yaml:"collector"`
}

// LoadConfig reads and validates configuration from YAML file
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if configuration values are valid
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name cannot be empty")
	}
	if c.App.Version == "" {
		return fmt.Errorf("app.version cannot be empty")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of: debug, info, warn, error")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host cannot be empty")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database.dbname cannot be empty")
	}
	if c.Database.MaxConnections <= 0 {
		return fmt.Errorf("database.max_connections must be positive")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr cannot be empty")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be non-negative")
	}

	if _, err := parsePositiveDuration(c.Monitor.HealthInterval); err != nil {
		return fmt.Errorf("monitor.health_interval: %w", err)
	}
	if _, err := parsePositiveDuration(c.Monitor.OptimizeInterval); err != nil {
		return fmt.Errorf("monitor.optimize_interval: %w", err)
	}
	if _, err := parsePositiveDuration(c.Monitor.CacheTTL); err != nil {
		return fmt.Errorf("monitor.cache_ttl: %w", err)
	}
	if c.Monitor.HistoryRetention <= 0 {
		return fmt.Errorf("monitor.history_retention must be positive")
	}

	if c.Collector.DiskPath == "" {
		return fmt.Errorf("collector.disk_path cannot be empty")
	}
	if c.Collector.NetworkCapacityMbps <= 0 {
		return fmt.Errorf("collector.network_capacity_mbps must be positive")
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides
func (c *Config) ApplyEnvOverrides() {
	if host := os.Getenv("SYSOPT_DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if user := os.Getenv("SYSOPT_DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("SYSOPT_DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("SYSOPT_DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}
	if addr := os.Getenv("SYSOPT_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := os.Getenv("SYSOPT_REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if logLevel := os.Getenv("SYSOPT_LOG_LEVEL"); logLevel != "" {
		c.App.LogLevel = logLevel
	}
}

// GetDatabaseURL returns PostgreSQL connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable&pool_max_conns=%d",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.MaxConnections,
	)
}

// HealthInterval returns the parsed health tick interval.
func (c *Config) HealthInterval() time.Duration {
	return mustDuration(c.Monitor.HealthInterval)
}

// OptimizeInterval returns the parsed optimization tick interval.
func (c *Config) OptimizeInterval() time.Duration {
	return mustDuration(c.Monitor.OptimizeInterval)
}

// CacheTTL returns the parsed health report cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return mustDuration(c.Monitor.CacheTTL)
}

func parsePositiveDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("cannot be empty")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

// mustDuration assumes Validate has already run.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
