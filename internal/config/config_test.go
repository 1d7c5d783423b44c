package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "crucible", cfg.Name)
	assert.Equal(t, "depth", cfg.Agenda.Strategy)
}

func TestLoadFileParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crucible.yaml")
	yamlBody := "name: myrules\nagenda:\n  strategy: breadth\n  default_salience: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "myrules", cfg.Name)
	assert.Equal(t, "breadth", cfg.Agenda.Strategy)
	assert.Equal(t, 5, cfg.Agenda.DefaultSalience)
}

func TestSaveRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Agenda.Strategy = "mea"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mea", loaded.Agenda.Strategy)
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agenda.Strategy = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeMaxFirings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxRuleFirings = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresDatabasePathWhenPersistenceEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persistence.Enabled = true
	cfg.Persistence.DatabasePath = ""
	assert.Error(t, cfg.Validate())
}

func TestLoggingIsCategoryEnabledDefaultsToTrue(t *testing.T) {
	lc := DefaultLoggingConfig()
	assert.True(t, lc.IsCategoryEnabled("agenda"))

	lc.Categories = map[string]bool{"agenda": false}
	assert.False(t, lc.IsCategoryEnabled("agenda"))
	assert.True(t, lc.IsCategoryEnabled("beta"))
}
