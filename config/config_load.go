package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Load builds the configuration: defaults, then the TOML file at path (if
// path is not empty), then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile decodes the TOML file at path over cfg. Keys absent from the
// file keep their current values. Unknown keys are an error, they are
// almost always typos.
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.Source = path
	return nil
}

// ApplyEnv overlays the fields tagged with `env` from the process
// environment. Variables that are not set leave the field untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to read environment: %w", err)
	}
	return nil
}
