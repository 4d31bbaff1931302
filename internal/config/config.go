package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/scoregraph/internal/onsets"
	"github.com/dusk-indust/scoregraph/internal/pitch"
)

// Environment variables that override file settings.
const (
	EnvLogLevel = "SCOREGRAPH_LOG_LEVEL"
	EnvStrict   = "SCOREGRAPH_STRICT"
)

// Config holds the settings loaded from scoregraph.yml.
type Config struct {
	Onsets  OnsetsConfig  `yaml:"onsets"`
	Pitch   PitchConfig   `yaml:"pitch"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type OnsetsConfig struct {
	Permissive                     bool    `yaml:"permissive"`
	PermissiveDesynchronization    bool    `yaml:"permissiveDesynchronization"`
	StaffOnlyPrecedence            bool    `yaml:"staffOnlyPrecedence"`
	ChainSystems                   bool    `yaml:"chainSystems"`
	FractionalVerticalIoUThreshold float64 `yaml:"fractionalVerticalIoUThreshold"`
	// TupleMultipliers replaces the default tuple table when set. Values
	// are fractions such as "2/3".
	TupleMultipliers map[int]string `yaml:"tupleMultipliers,omitempty"`
}

type PitchConfig struct {
	Permissive bool `yaml:"permissive"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Default returns the permissive configuration.
func Default() *Config {
	s := onsets.DefaultStrategy()
	return &Config{
		Onsets: OnsetsConfig{
			Permissive:                     s.Permissive,
			PermissiveDesynchronization:    s.PermissiveDesynchronization,
			StaffOnlyPrecedence:            s.PrecedenceOnlyForStaffAttached,
			ChainSystems:                   s.LinkSinksToSourcesAcrossSystems,
			FractionalVerticalIoUThreshold: s.FractionalVerticalIoUThreshold,
		},
		Pitch:   PitchConfig{Permissive: pitch.DefaultStrategy().Permissive},
		Log:     LogConfig{Level: "info", Format: "console"},
		Metrics: MetricsConfig{Listen: ":9090"},
	}
}

// Load reads scoregraph.yml or scoregraph.yaml from dir, after loading a
// .env file from the same directory if there is one. Returns the defaults
// (not an error) if no config file exists. Environment variables override
// file values.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	for _, name := range []string{"scoregraph.yml", "scoregraph.yaml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the given config file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if _, err := cfg.OnsetStrategy(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if v := os.Getenv(EnvStrict); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		if strict {
			c.SetStrict()
		}
	}
	return nil
}

// SetStrict turns every soft heuristic into a failure.
func (c *Config) SetStrict() {
	c.Onsets.Permissive = false
	c.Onsets.PermissiveDesynchronization = false
	c.Pitch.Permissive = false
}

// OnsetStrategy converts the onsets section into an engine strategy.
func (c *Config) OnsetStrategy() (onsets.Strategy, error) {
	s := onsets.Strategy{
		Permissive:                      c.Onsets.Permissive,
		PermissiveDesynchronization:     c.Onsets.PermissiveDesynchronization,
		PrecedenceOnlyForStaffAttached:  c.Onsets.StaffOnlyPrecedence,
		LinkSinksToSourcesAcrossSystems: c.Onsets.ChainSystems,
		FractionalVerticalIoUThreshold:  c.Onsets.FractionalVerticalIoUThreshold,
	}
	if len(c.Onsets.TupleMultipliers) == 0 {
		s.TupleMultipliers = onsets.DefaultTupleMultipliers()
		return s, nil
	}
	s.TupleMultipliers = make(map[int]*big.Rat, len(c.Onsets.TupleMultipliers))
	for count, frac := range c.Onsets.TupleMultipliers {
		r, ok := new(big.Rat).SetString(frac)
		if !ok || r.Sign() <= 0 {
			return s, fmt.Errorf("tuple multiplier for %d: invalid fraction %q", count, frac)
		}
		s.TupleMultipliers[count] = r
	}
	return s, nil
}

// PitchStrategy converts the pitch section into an engine strategy.
func (c *Config) PitchStrategy() pitch.Strategy {
	return pitch.Strategy{Permissive: c.Pitch.Permissive}
}
