package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sysprog21/recfifo/fifo"
)

// Config is the fifod YAML configuration.
type Config struct {
	// Socket is the unix-domain socket path the endpoint listens on.
	Socket string `yaml:"socket"`

	// Capacity is the fifo storage size in bytes.
	Capacity int `yaml:"capacity"`

	// PrefixWidth is the record length-prefix width (1 or 2 bytes).
	PrefixWidth int `yaml:"prefix_width"`

	// Segment optionally names a shared-memory segment to hold the fifo
	// storage. Empty means heap storage.
	Segment string `yaml:"segment"`

	// LogLevel sets the level for all loggers (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Socket:      "/tmp/recfifo.sock",
		Capacity:    65536,
		PrefixWidth: fifo.PrefixWidth2,
		LogLevel:    "info",
	}
}

// LoadConfig reads a YAML config file, filling unset fields with defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Socket == "" {
		return fmt.Errorf("socket path must not be empty")
	}
	if c.Capacity <= c.PrefixWidth {
		return fmt.Errorf("capacity %d too small for prefix width %d", c.Capacity, c.PrefixWidth)
	}
	if c.PrefixWidth != fifo.PrefixWidth1 && c.PrefixWidth != fifo.PrefixWidth2 {
		return fmt.Errorf("prefix width must be 1 or 2, got %d", c.PrefixWidth)
	}
	return nil
}
