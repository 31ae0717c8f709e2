// Package config holds the application configuration, loaded from a YAML
// file with zero values filled from defaults and the collaborator API key
// overridable from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// apiKeyEnv is the environment variable that overrides the configured
// collaborator API key.
const apiKeyEnv = "GENAI_API_KEY"

// ProfileConfig tunes the metadata profiler.
type ProfileConfig struct {
	// SampleSize caps the rows examined per column; 0 keeps the default.
	SampleSize int `yaml:"sample_size" json:"sample_size"`
}

// CacheConfig locates and tunes the fingerprint cache.
type CacheConfig struct {
	Dir string `yaml:"dir" json:"dir"`
	// SimilarityThreshold is the default lookup threshold in [0,1].
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// MaxAgeDays drives age-based eviction; 0 disables it.
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`
}

// GeneratorConfig configures the collaborator and generation parameters.
type GeneratorConfig struct {
	APIKey         string  `yaml:"api_key" json:"api_key"`
	Model          string  `yaml:"model" json:"model"`
	MatchThreshold float64 `yaml:"match_threshold" json:"match_threshold"`
}

// SandboxConfig tunes routine execution.
type SandboxConfig struct {
	TimeoutSec int `yaml:"timeout_sec" json:"timeout_sec"`
}

// Config is the application root configuration.
type Config struct {
	Profile   ProfileConfig   `yaml:"profile" json:"profile"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Generator GeneratorConfig `yaml:"generator" json:"generator"`
	Sandbox   SandboxConfig   `yaml:"sandbox" json:"sandbox"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Profile: ProfileConfig{
			SampleSize: 1000,
		},
		Cache: CacheConfig{
			Dir:                 "./data/cache",
			SimilarityThreshold: 0.85,
			MaxAgeDays:          30,
		},
		Generator: GeneratorConfig{
			MatchThreshold: 0.8,
		},
		Sandbox: SandboxConfig{
			TimeoutSec: 30,
		},
	}
}

// Load reads a configuration file, fills zero values with defaults, and
// applies environment overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		applyDefaults(cfg)
	}

	if key := os.Getenv(apiKeyEnv); key != "" {
		cfg.Generator.APIKey = key
	}
	return cfg, nil
}

// SandboxTimeout converts the configured timeout to a duration.
func (c *Config) SandboxTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSec) * time.Second
}

// applyDefaults fills zero values after a file load.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Profile.SampleSize == 0 {
		cfg.Profile.SampleSize = def.Profile.SampleSize
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = def.Cache.Dir
	}
	if cfg.Cache.SimilarityThreshold == 0 {
		cfg.Cache.SimilarityThreshold = def.Cache.SimilarityThreshold
	}
	if cfg.Generator.MatchThreshold == 0 {
		cfg.Generator.MatchThreshold = def.Generator.MatchThreshold
	}
	if cfg.Sandbox.TimeoutSec == 0 {
		cfg.Sandbox.TimeoutSec = def.Sandbox.TimeoutSec
	}
}
