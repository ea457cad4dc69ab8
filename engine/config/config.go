// Package config loads the engine's TOML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine  EngineConfig           `toml:"engine"`
	Logging LoggingConfig          `toml:"logging"`
	Tables  map[string]TableConfig `toml:"tables"`
	Bench   BenchConfig            `toml:"bench"`
}

type EngineConfig struct {
	TickRate        time.Duration `toml:"tick_rate"`
	Workers         int           `toml:"workers"`
	ProfileInterval time.Duration `toml:"profile_interval"` // 0 disables the periodic profiler log
	Manifest        string        `toml:"manifest"`         // optional YAML component manifest
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type TableConfig struct {
	Capacity int    `toml:"capacity"`
	MergeGap uint64 `toml:"merge_gap"`
	Removal  string `toml:"removal"` // "shift_down" or "swap_last"
}

type BenchConfig struct {
	Frames          int `toml:"frames"`
	ObjectsPerTable int `toml:"objects_per_table"`
	Mutators        int `toml:"mutators"`
	// Materials is an optional glTF file whose materials are imported before the tables are seeded.
	Materials string `toml:"materials"`
}

// Table returns the configuration of the named table, falling back to the defaults for unset fields.
//
// Parameters:
//   - name: the table name
//
// Returns:
//   - TableConfig: the merged table configuration
func (c *Config) Table(name string) TableConfig {
	out := defaultTable
	if tc, ok := c.Tables[name]; ok {
		if tc.Capacity > 0 {
			out.Capacity = tc.Capacity
		}
		if tc.MergeGap > 0 {
			out.MergeGap = tc.MergeGap
		}
		if tc.Removal != "" {
			out.Removal = tc.Removal
		}
	}
	return out
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a TOML document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine.tick_rate must be positive, got %s", c.Engine.TickRate)
	}
	if c.Engine.Workers <= 0 {
		return fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers)
	}
	for name, tc := range c.Tables {
		if tc.Capacity < 0 {
			return fmt.Errorf("tables.%s.capacity must not be negative", name)
		}
		switch tc.Removal {
		case "", RemovalShiftDown, RemovalSwapLast:
		default:
			return fmt.Errorf("tables.%s.removal: unknown policy %q", name, tc.Removal)
		}
	}
	return nil
}

// Removal policy names accepted in TableConfig.Removal.
const (
	RemovalShiftDown = "shift_down"
	RemovalSwapLast  = "swap_last"
)

var defaultTable = TableConfig{
	Capacity: 1024,
	MergeGap: 0,
	Removal:  RemovalShiftDown,
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRate: time.Second / 60,
			Workers:  4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tables: map[string]TableConfig{},
		Bench: BenchConfig{
			Frames:          600,
			ObjectsPerTable: 256,
			Mutators:        4,
		},
	}
}
