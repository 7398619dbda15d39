// Package config loads neurospin settings from YAML with NEUROSPIN_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/neurospin/internal/scanner"
	"github.com/san-kum/neurospin/internal/tissue"
)

const (
	DefaultFieldStrength = scanner.DefaultFieldStrength
	DefaultFPS           = 60
	DefaultSeed          = 1
	DefaultDataDir       = ".neurospin"
	DefaultTheme         = "default"
	DefaultLogLevel      = "INFO"
	DefaultTimeout       = 10 * time.Second

	DefaultLicenseURL  = "https://raw.githubusercontent.com/san-kum/neurospin-licenses/main/licenses.json"
	DefaultMetadataURL = "https://raw.githubusercontent.com/san-kum/neurospin/main/version.json"
)

type Config struct {
	FieldStrength float64       `yaml:"field_strength"`
	Region        string        `yaml:"region"`
	Sequence      string        `yaml:"sequence"`
	FPS           int           `yaml:"fps"`
	Seed          int64         `yaml:"seed"`
	DataDir       string        `yaml:"data_dir"`
	Theme         string        `yaml:"theme"`
	LogLevel      string        `yaml:"log_level"`
	Timing        TimingConfig  `yaml:"timing"`
	License       LicenseConfig `yaml:"license"`
	Update        UpdateConfig  `yaml:"update"`
}

type TimingConfig struct {
	DurationMs   int `yaml:"duration_ms"`
	RepetitionMs int `yaml:"repetition_ms"`
	ExcitationMs int `yaml:"excitation_ms"`
}

type LicenseConfig struct {
	URL     string        `yaml:"url"`
	Require bool          `yaml:"require"`
	Timeout time.Duration `yaml:"timeout"`
}

type UpdateConfig struct {
	URL     string        `yaml:"url"`
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		FieldStrength: DefaultFieldStrength,
		Region:        string(tissue.Brain),
		Sequence:      string(tissue.T1Weighted),
		FPS:           DefaultFPS,
		Seed:          DefaultSeed,
		DataDir:       DefaultDataDir,
		Theme:         DefaultTheme,
		LogLevel:      DefaultLogLevel,
		Timing: TimingConfig{
			DurationMs:   5000,
			RepetitionMs: 500,
			ExcitationMs: 50,
		},
		License: LicenseConfig{
			URL:     DefaultLicenseURL,
			Require: false,
			Timeout: DefaultTimeout,
		},
		Update: UpdateConfig{
			URL:     DefaultMetadataURL,
			Enabled: true,
			Timeout: DefaultTimeout,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve loads path when it names an existing file, falls back to the
// defaults otherwise and then applies environment overrides.
func Resolve(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	ApplyEnv(cfg)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides settings from NEUROSPIN_* variables, for example
// NEUROSPIN_FIELD_STRENGTH or NEUROSPIN_LICENSE_URL.
func ApplyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("neurospin")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	str := map[string]*string{
		"region":      &cfg.Region,
		"sequence":    &cfg.Sequence,
		"data_dir":    &cfg.DataDir,
		"theme":       &cfg.Theme,
		"log_level":   &cfg.LogLevel,
		"license.url": &cfg.License.URL,
		"update.url":  &cfg.Update.URL,
	}
	for key, dst := range str {
		_ = v.BindEnv(key)
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	for _, key := range []string{"field_strength", "fps", "seed", "license.require", "update.enabled", "license.timeout", "update.timeout"} {
		_ = v.BindEnv(key)
	}
	if v.IsSet("field_strength") {
		cfg.FieldStrength = v.GetFloat64("field_strength")
	}
	if v.IsSet("fps") {
		cfg.FPS = v.GetInt("fps")
	}
	if v.IsSet("seed") {
		cfg.Seed = v.GetInt64("seed")
	}
	if v.IsSet("license.require") {
		cfg.License.Require = v.GetBool("license.require")
	}
	if v.IsSet("update.enabled") {
		cfg.Update.Enabled = v.GetBool("update.enabled")
	}
	if v.IsSet("license.timeout") {
		cfg.License.Timeout = v.GetDuration("license.timeout")
	}
	if v.IsSet("update.timeout") {
		cfg.Update.Timeout = v.GetDuration("update.timeout")
	}
}

func (c *Config) Validate() error {
	if !scanner.ValidFieldStrength(c.FieldStrength) {
		return fmt.Errorf("%w: field_strength %v (want one of %v)", ErrInvalid, c.FieldStrength, scanner.FieldStrengths)
	}
	if !tissue.Region(c.Region).Valid() {
		return fmt.Errorf("%w: region %q", ErrInvalid, c.Region)
	}
	if !tissue.Sequence(c.Sequence).Valid() {
		return fmt.Errorf("%w: sequence %q", ErrInvalid, c.Sequence)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	}
	t := c.Timing
	if t.DurationMs <= 0 || t.RepetitionMs <= 0 || t.ExcitationMs <= 0 || t.ExcitationMs >= t.RepetitionMs {
		return fmt.Errorf("%w: timing %+v", ErrInvalid, t)
	}
	return nil
}

func (c *Config) Selection() scanner.Selection {
	return scanner.Selection{Region: tissue.Region(c.Region), Sequence: tissue.Sequence(c.Sequence)}
}

func (c *Config) ScanTiming() scanner.Timing {
	return scanner.Timing{
		Duration:         time.Duration(c.Timing.DurationMs) * time.Millisecond,
		Repetition:       time.Duration(c.Timing.RepetitionMs) * time.Millisecond,
		ExcitationWindow: time.Duration(c.Timing.ExcitationMs) * time.Millisecond,
		Frame:            time.Second / time.Duration(max(c.FPS, 1)),
	}
}

// ApplyPreset copies a protocol's selection and field strength.
func (c *Config) ApplyPreset(p Protocol) {
	c.Region = string(p.Region)
	c.Sequence = string(p.Sequence)
	c.FieldStrength = p.FieldStrength
}
