package config

import "fmt"

// PersistenceConfig configures the optional sqlite-backed binary-image
// store (spec.md §6), grounded on modernc.org/sqlite the same way the
// teacher's internal/store/vec_compat.go opens its database.
type PersistenceConfig struct {
	// Enabled marks DatabasePath as required (see Validate). The engine's
	// BSave/BLoad take an explicit path and do not consult this flag.
	Enabled bool `yaml:"enabled"`

	DatabasePath string `yaml:"database_path"`
}

func DefaultPersistenceConfig() PersistenceConfig {
	return PersistenceConfig{
		Enabled:      false,
		DatabasePath: "crucible.db",
	}
}

func (c PersistenceConfig) Validate() error {
	if c.Enabled && c.DatabasePath == "" {
		return fmt.Errorf("config: persistence.database_path is required when persistence is enabled")
	}
	return nil
}
