package kv

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ParseConfig decodes a YAML document. The driver defaults to memory.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("kv: parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("kv: read config %q: %w", path, err)
	}
	return ParseConfig(data)
}

func (c *Config) normalize() {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	c.Path = strings.TrimSpace(c.Path)
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
}

// Validate checks the driver name and that persistent drivers have a path.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMemory, "":
		return nil
	case DriverBadger, DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("kv: driver %q requires a path", c.Driver)
		}
		return nil
	default:
		return fmt.Errorf("kv: unsupported driver %q", c.Driver)
	}
}
