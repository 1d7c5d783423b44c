// Package config loads a nested, per-concern Config struct from YAML, in
// the shape of the teacher's internal/config/config.go (one file per
// concern — engine.go, agenda.go, logging.go, persistence.go — each
// holding one struct and a DefaultXConfig constructor; all but logging.go
// also have a Validate method) using gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"crucible/internal/logging"
)

// Config holds every tunable for a crucible instance.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Engine      EngineConfig      `yaml:"engine"`
	Agenda      AgendaConfig      `yaml:"agenda"`
	Logging     LoggingConfig     `yaml:"logging"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

// DefaultConfig returns the configuration a fresh environment boots with
// when no file is supplied, mirroring the teacher's DefaultConfig.
func DefaultConfig() *Config {
	return &Config{
		Name:    "crucible",
		Version: "0.1.0",

		Engine:      DefaultEngineConfig(),
		Agenda:      DefaultAgendaConfig(),
		Logging:     DefaultLoggingConfig(),
		Persistence: DefaultPersistenceConfig(),
	}
}

// LoadFile loads configuration from a YAML file, falling back to
// DefaultConfig when the file is absent — the same "missing config file
// is not an error" behavior as the teacher's Load.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			return cfg, nil
		}
		logging.BootError("failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		logging.BootError("failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	logging.Boot("config loaded from %s", path)
	return cfg, nil
}

// Save writes the configuration back out as YAML, for `save-config`-style
// CLI commands that round-trip a modified in-memory Config.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Validate runs every concern's own Validate method, collecting the
// first failure the way the teacher's ValidateCoreLimits guards a single
// concern — here extended across engine, agenda and persistence (the
// logging concern has no Validate).
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Agenda.Validate(); err != nil {
		return err
	}
	return c.Persistence.Validate()
}
