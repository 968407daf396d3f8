// Package config layers the runtime configuration: defaults, an optional
// YAML file, then ADRECON_* environment overrides. CLI flags are applied
// last by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/commons.systems/adrecon/internal/domain"
)

// Config holds the runtime settings the CLI and server need.
type Config struct {
	ExchangeRate float64 `yaml:"exchangeRate"`
	Port         int     `yaml:"port"`
	DataPath     string  `yaml:"dataPath"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ExchangeRate: domain.DefaultExchangeRate,
		Port:         8080,
		DataPath:     "adrecon.db",
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// path is non-empty the file must exist; when empty no file is read), and
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ADRECON_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ADRECON_RATE %q: %w", v, err)
		}
		c.ExchangeRate = rate
	}
	if v := os.Getenv("ADRECON_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ADRECON_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("ADRECON_DATA"); v != "" {
		c.DataPath = v
	}
	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.ExchangeRate <= 0 {
		return fmt.Errorf("exchange rate must be positive, got %v", c.ExchangeRate)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.DataPath == "" {
		return fmt.Errorf("data path must not be empty")
	}
	return nil
}
