package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"smc-trading-core/internal/risk"
	"smc-trading-core/internal/smc"
)

// Config is the full application configuration: logging, account capital,
// engine tuning, firewall thresholds and the symbol-to-sector table.
type Config struct {
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	} `yaml:"logging"`

	// Capital is the account capital every percentage limit is taken
	// against.
	Capital float64 `yaml:"capital" default:"100000" validate:"gt=0"`

	Engine smc.Config  `yaml:"engine"`
	Risk   risk.Config `yaml:"risk"`

	// Sectors maps symbols to sectors for exposure grouping.
	Sectors map[string]string `yaml:"sectors"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Addr    string `yaml:"addr" default:":9090"`
	} `yaml:"metrics"`
}

// Load reads and parses a YAML configuration file, applies struct
// defaults and validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides selected fields with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CAPITAL"); v != "" {
		capital, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse CAPITAL: %w", err)
		}
		c.Capital = capital
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	return c, nil
}
