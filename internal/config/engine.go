package config

import "fmt"

// EngineConfig tunes the driver loop and its reentrancy guards.
type EngineConfig struct {
	// MaxRuleFirings bounds `(run)` with no argument, guarding against a
	// rule base that never drains its own agenda. 0 means unlimited.
	MaxRuleFirings int `yaml:"max_rule_firings"`

	// The Watch* fields mirror CLIPS's default watch flags at environment
	// creation, so a fresh Environment already traces what an operator
	// expects without an explicit `watch` call.
	WatchFacts       bool `yaml:"watch_facts"`
	WatchRules       bool `yaml:"watch_rules"`
	WatchActivations bool `yaml:"watch_activations"`
}

// DefaultEngineConfig matches CLIPS's own defaults: unlimited firings,
// nothing watched until asked.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxRuleFirings:   0,
		WatchFacts:       false,
		WatchRules:       false,
		WatchActivations: false,
	}
}

func (c EngineConfig) Validate() error {
	if c.MaxRuleFirings < 0 {
		return fmt.Errorf("config: engine.max_rule_firings must be >= 0")
	}
	return nil
}
