package config

import "fmt"

// AgendaConfig configures the default conflict-resolution strategy a
// fresh module's agenda starts with (spec.md §4.5).
type AgendaConfig struct {
	// Strategy is one of depth, breadth, complexity, simplicity, lex,
	// mea, random, matching internal/agenda.Strategy.String().
	Strategy string `yaml:"strategy"`

	// DefaultSalience is the salience a rule gets when its declaration
	// omits one.
	DefaultSalience int `yaml:"default_salience"`
}

func DefaultAgendaConfig() AgendaConfig {
	return AgendaConfig{
		Strategy:        "depth",
		DefaultSalience: 0,
	}
}

var validStrategies = map[string]bool{
	"depth": true, "breadth": true, "complexity": true,
	"simplicity": true, "lex": true, "mea": true, "random": true,
}

func (c AgendaConfig) Validate() error {
	if !validStrategies[c.Strategy] {
		return fmt.Errorf("config: agenda.strategy %q is not a recognized strategy", c.Strategy)
	}
	return nil
}
