package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alphabill-org/alphabill-blueprints/state"
	"github.com/alphabill-org/alphabill-blueprints/types"
)

const (
	DefaultMaxCallDepth = 8
	maxCallDepthLimit   = 64
)

type (
	Config struct {
		NetworkID    types.NetworkID `yaml:"network_id"`
		MaxCallDepth int             `yaml:"max_call_depth"` // how deep component calls may be nested
		Store        StoreConfig     `yaml:"store"`
		Log          LogConfig       `yaml:"log"`
	}

	StoreConfig struct {
		Path     string `yaml:"path"`      // directory of the LevelDB database
		InMemory bool   `yaml:"in_memory"` // when true Path is ignored and state is not persisted
		Sync     bool   `yaml:"sync"`      // flush every commit to disk
	}
)

func DefaultConfig() *Config {
	return &Config{
		NetworkID:    types.NetworkLocal,
		MaxCallDepth: DefaultMaxCallDepth,
		Store:        StoreConfig{InMemory: true},
		Log:          LogConfig{Level: "info", Format: "console"},
	}
}

/*
LoadConfig reads YAML config file, values not present in the file keep
their default value.
*/
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.NetworkID == 0 {
		return errors.New("network id must be assigned")
	}
	if c.MaxCallDepth < 1 || c.MaxCallDepth > maxCallDepthLimit {
		return fmt.Errorf("max call depth must be in range 1..%d, got %d", maxCallDepthLimit, c.MaxCallDepth)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("store path must be assigned for persistent store")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}

// OpenStore opens the state store described by the config.
func (c *Config) OpenStore() (*state.LevelDB, error) {
	if c.Store.InMemory {
		return state.NewMemoryLevelDB()
	}
	return state.OpenLevelDB(c.Store.Path, c.Store.Sync)
}
