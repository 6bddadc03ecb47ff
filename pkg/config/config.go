// Package config loads router configuration through viper. Settings come
// from skillrouter-config.yaml, ~/.skillrouter/config.yaml, or
// SKILLROUTER_-prefixed environment variables; named profiles overlay the
// base configuration without zeroing unset fields.
package config

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/faion-net/skillrouter/pkg/assembler"
	"github.com/faion-net/skillrouter/pkg/matcher"
	"github.com/faion-net/skillrouter/pkg/resolver"
)

// Config is the full router configuration.
type Config struct {
	// CorpusRoots are the directories scanned for skill documents.
	CorpusRoots []string `mapstructure:"corpus_roots"`
	// Includes are the glob patterns selecting corpus files per root.
	Includes []string `mapstructure:"includes"`
	// RulesFile points to the YAML routing table; empty means built-in rules.
	RulesFile string `mapstructure:"rules_file"`

	MinScore     float64       `mapstructure:"min_score"`
	MaxSkills    int           `mapstructure:"max_skills"`
	BudgetChars  int           `mapstructure:"budget_chars"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	ReadAttempts uint          `mapstructure:"read_attempts"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Listen    string `mapstructure:"listen"`

	Tracing TracingConfig `mapstructure:"tracing"`

	// Profiles are named configuration overlays selected via "profile".
	Profiles map[string]ProfileConfig `mapstructure:"profiles"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	SamplerType  string  `mapstructure:"sampler_type"`
	SamplerRatio float64 `mapstructure:"sampler_ratio"`
}

// ProfileConfig is a partial configuration overlay.
type ProfileConfig map[string]any

// FromViper unmarshals the active configuration, applies the selected
// profile, and fills defaults.
func FromViper() (Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "unmarshaling configuration")
	}

	if cfg.Profiles != nil {
		delete(cfg.Profiles, "default")
	}

	if name := activeProfile(); name != "" {
		profile, exists := cfg.Profiles[name]
		if !exists {
			return cfg, errors.Errorf("profile %q not found in configuration", name)
		}
		if err := applyProfile(&cfg, profile); err != nil {
			return cfg, err
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func activeProfile() string {
	profile := viper.GetString("profile")
	if profile == "default" {
		return ""
	}
	return profile
}

func applyProfile(cfg *Config, profile ProfileConfig) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		// Profiles overlay; unset profile keys keep their base values.
		ZeroFields: false,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "creating profile decoder")
	}
	return errors.Wrap(decoder.Decode(map[string]any(profile)), "applying profile")
}

func (c *Config) applyDefaults() {
	if len(c.CorpusRoots) == 0 {
		c.CorpusRoots = []string{"./skills"}
	}
	if c.MinScore == 0 {
		c.MinScore = matcher.DefaultMinScore
	}
	if c.MaxSkills == 0 {
		c.MaxSkills = resolver.DefaultMaxSkills
	}
	if c.BudgetChars == 0 {
		c.BudgetChars = assembler.DefaultBudgetChars
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = assembler.DefaultFetchTimeout
	}
	if c.ReadAttempts == 0 {
		c.ReadAttempts = 2
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Listen == "" {
		c.Listen = "localhost:8080"
	}
	if c.Tracing.SamplerType == "" {
		c.Tracing.SamplerType = "always"
	}
}
