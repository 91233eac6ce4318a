package database

import (
	"fmt"
	"net/url"
	"slices"
	"time"
)

var (
	sslModes  = []string{"disable", "require", "verify-ca", "verify-full"}
	logLevels = []string{"silent", "error", "warn", "info"}
)

// Config describes how to reach PostgreSQL. URL, when set, wins over the
// discrete connection fields.
type Config struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Timezone string `mapstructure:"timezone"`

	Pool PoolConfig `mapstructure:"pool"`

	// ConnectAttempts bounds the startup ping loop; postgres containers
	// often accept connections a few seconds after the service starts.
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`

	LogLevel      string        `mapstructure:"log_level"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`

	// Migrate applies pending goose migrations on startup
	Migrate bool `mapstructure:"migrate"`
}

type PoolConfig struct {
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxOpen     int           `mapstructure:"max_open"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
	MaxIdleTime time.Duration `mapstructure:"max_idle_time"`
}

func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "file_storage",
		SSLMode:  "disable",
		Timezone: "UTC",
		Pool: PoolConfig{
			MaxIdle:     10,
			MaxOpen:     50,
			MaxLifetime: time.Hour,
			MaxIdleTime: 10 * time.Minute,
		},
		ConnectAttempts: 5,
		ConnectBackoff:  time.Second,
		LogLevel:        "warn",
		SlowThreshold:   200 * time.Millisecond,
		Migrate:         true,
	}
}

func (c *Config) Validate() error {
	if c.URL == "" {
		switch {
		case c.Host == "":
			return fmt.Errorf("database: host is required")
		case c.Port <= 0 || c.Port > 65535:
			return fmt.Errorf("database: invalid port %d", c.Port)
		case c.User == "":
			return fmt.Errorf("database: user is required")
		case c.DBName == "":
			return fmt.Errorf("database: dbname is required")
		case !slices.Contains(sslModes, c.SSLMode):
			return fmt.Errorf("database: sslmode must be one of %v", sslModes)
		}
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("database: log_level must be one of %v", logLevels)
	}

	p := c.Pool
	if p.MaxIdle < 0 || p.MaxOpen < 0 {
		return fmt.Errorf("database: pool sizes must be >= 0")
	}
	if p.MaxOpen > 0 && p.MaxIdle > p.MaxOpen {
		return fmt.Errorf("database: pool.max_idle (%d) exceeds pool.max_open (%d)", p.MaxIdle, p.MaxOpen)
	}
	if p.MaxLifetime < 0 || p.MaxIdleTime < 0 || c.SlowThreshold < 0 || c.ConnectBackoff < 0 {
		return fmt.Errorf("database: durations must be >= 0")
	}
	if c.ConnectAttempts < 1 {
		return fmt.Errorf("database: connect_attempts must be >= 1")
	}
	return nil
}

// DSN renders the connection string in URL form
func (c *Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	tz := c.Timezone
	if tz == "" {
		tz = "UTC"
	}
	q.Set("TimeZone", tz)

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}
