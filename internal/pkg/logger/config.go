package logger

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and sinks. Stdout and File may both be on.
type Config struct {
	Level      string     `mapstructure:"level"`
	Format     string     `mapstructure:"format"` // json, console
	Stdout     bool       `mapstructure:"stdout"`
	File       FileConfig `mapstructure:"file"`
	Caller     bool       `mapstructure:"caller"`
	Stacktrace string     `mapstructure:"stacktrace"` // minimum level that carries a stack, empty disables
}

// FileConfig is a lumberjack rotating file
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		Stdout:     true,
		Caller:     true,
		Stacktrace: "error",
		File: FileConfig{
			Path:       "logs/file-storage.log",
			MaxSizeMB:  100,
			MaxAgeDays: 30,
			MaxBackups: 10,
			Compress:   true,
		},
	}
}

func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Stacktrace != "" {
		if _, err := zapcore.ParseLevel(c.Stacktrace); err != nil {
			return fmt.Errorf("log: stacktrace: %w", err)
		}
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("log: format must be json or console, got %q", c.Format)
	}
	if !c.Stdout && !c.File.Enabled {
		return fmt.Errorf("log: no sink enabled")
	}
	if c.File.Enabled {
		f := c.File
		if f.Path == "" {
			return fmt.Errorf("log: file.path is required")
		}
		if f.MaxSizeMB <= 0 || f.MaxAgeDays <= 0 || f.MaxBackups < 0 {
			return fmt.Errorf("log: invalid file rotation settings")
		}
	}
	return nil
}
