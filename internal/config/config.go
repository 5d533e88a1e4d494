// Package config provides YAML-based configuration loading for the match
// practice tool.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from matchpractice.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Timer    TimerConfig    `yaml:"timer"`
	Backup   BackupConfig   `yaml:"backup"`
	Timezone string         `yaml:"timezone"`
}

// DatabaseConfig holds the sqlite file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// TimerConfig holds the tick resolution for the practice timer loop.
type TimerConfig struct {
	TickMs int `yaml:"tick_ms"`
}

// BackupConfig schedules periodic CSV snapshots of all rounds.
type BackupConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Dir     string `yaml:"dir"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TickInterval returns the configured tick resolution as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Timer.TickMs) * time.Millisecond
}

// Location resolves the configured timezone. Stats group rounds by calendar
// day in this location.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "practice.db"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Timer.TickMs == 0 {
		c.Timer.TickMs = 10
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Backup.Cron == "" {
		c.Backup.Cron = "0 3 * * *"
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = "backups"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Timer.TickMs < 1 || c.Timer.TickMs > 1000 {
		errs = append(errs, fmt.Sprintf("timer.tick_ms %d out of range (1-1000)", c.Timer.TickMs))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("timezone %q is not a valid location", c.Timezone))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
