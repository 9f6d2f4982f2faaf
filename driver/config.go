package driver

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a Driver's boot configuration
// (SPEC_FULL.md §3's composition-root YAML). It carries only the
// execution-mode and logging knobs that make sense independent of any
// concrete organism; vessel/nerve topology and component wiring are the
// collaborator's concern (spec.md §6).
type FileConfig struct {
	// Threaded selects NewThreaded over New.
	Threaded bool `yaml:"threaded"`
	// TickSeconds is the fixed advance_by step the mortalsimd loop applies
	// on every tick.
	TickSeconds float64 `yaml:"tick_seconds"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// LoadFileConfig reads and parses a FileConfig from path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.TickSeconds <= 0 {
		cfg.TickSeconds = 1.0
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}
