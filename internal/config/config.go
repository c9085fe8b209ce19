// Package config handles ippvm.toml run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Config represents an ippvm.toml file.
type Config struct {
	Limits Limits    `toml:"limits"`
	Log    LogConfig `toml:"log"`
}

// Limits bounds a single run. Zero values mean unlimited.
type Limits struct {
	MaxSteps int    `toml:"max_steps"`
	Timeout  string `toml:"timeout"` // time.ParseDuration syntax, e.g. "5s"
}

// LogConfig configures diagnostics logging.
type LogConfig struct {
	Level   string `toml:"level"` // debug, info, warn or error
	NoColor bool   `toml:"no_color"`
}

var ErrInvalid = errors.New("invalid configuration")

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "warn"},
	}
}

// Load parses a TOML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse parses TOML text on top of the defaults.
func Parse(text string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(text, c)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalid, undecoded[0].String())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Limits.MaxSteps < 0 {
		return fmt.Errorf("%w: max_steps must not be negative", ErrInvalid)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration returns the run timeout, 0 when unset.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Limits.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Limits.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: timeout %q", ErrInvalid, c.Limits.Timeout)
	}
	return d, nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.WarnLevel, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	return lvl, nil
}
