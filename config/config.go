// Package config loads hdcmem settings and record fixtures from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hdc-research/hdcmem/hdc"
	"github.com/hdc-research/hdcmem/memory"
)

// Config is the on-disk configuration.
//
//	dims: 10000
//	seed: 42
//	backend: indexed
//	index:
//	  tables: 48
//	  bits: 8
//	symbols:
//	  source: hashed
//	  fold_case: true
//	log:
//	  level: debug
//	  format: json
type Config struct {
	Dims    int           `yaml:"dims"`
	Seed    uint64        `yaml:"seed"`
	Backend string        `yaml:"backend"`
	Index   IndexConfig   `yaml:"index"`
	Symbols SymbolsConfig `yaml:"symbols"`
	Log     LogConfig     `yaml:"log"`
}

// IndexConfig tunes the indexed backend. Zero values keep its defaults.
type IndexConfig struct {
	Tables int `yaml:"tables"`
	Bits   int `yaml:"bits"`
}

// SymbolsConfig selects how symbols get vectors and how they are normalized.
type SymbolsConfig struct {
	Source   string `yaml:"source"` // generator | hashed
	FoldCase bool   `yaml:"fold_case"`
}

// LogConfig controls the driver's slog output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Dims:    10000,
		Seed:    42,
		Backend: string(memory.BackendLinear),
		Index:   IndexConfig{Tables: 48, Bits: 8},
		Symbols: SymbolsConfig{Source: hdc.SourceGenerator.String()},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and validates the YAML file at path. Fields absent from the
// file keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.Dims <= 0 {
		errs = append(errs, fmt.Errorf("dims must be positive, got %d", c.Dims))
	}
	if _, err := memory.ParseBackend(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.Index.Tables < 0 {
		errs = append(errs, fmt.Errorf("index.tables must not be negative, got %d", c.Index.Tables))
	}
	if c.Index.Bits < 0 || c.Index.Bits > 64 {
		errs = append(errs, fmt.Errorf("index.bits must be in [0, 64], got %d", c.Index.Bits))
	}
	if _, err := hdc.ParseSymbolSource(c.Symbols.Source); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}
