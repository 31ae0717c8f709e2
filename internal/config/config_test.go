package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	t.Setenv(apiKeyEnv, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Profile.SampleSize != 1000 {
		t.Errorf("sample size = %d, want 1000", cfg.Profile.SampleSize)
	}
	if cfg.Cache.SimilarityThreshold != 0.85 {
		t.Errorf("similarity threshold = %g, want 0.85", cfg.Cache.SimilarityThreshold)
	}
	if cfg.Cache.MaxAgeDays != 30 {
		t.Errorf("max age = %d, want 30", cfg.Cache.MaxAgeDays)
	}
	if cfg.Generator.MatchThreshold != 0.8 {
		t.Errorf("match threshold = %g, want 0.8", cfg.Generator.MatchThreshold)
	}
	if got := cfg.SandboxTimeout(); got != 30*time.Second {
		t.Errorf("sandbox timeout = %v, want 30s", got)
	}
	if cfg.Generator.APIKey != "" {
		t.Errorf("api key = %q, want empty", cfg.Generator.APIKey)
	}
}

func TestLoadFilePartialOverride(t *testing.T) {
	t.Setenv(apiKeyEnv, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
cache:
  dir: /tmp/other-cache
  similarity_threshold: 0.9
sandbox:
  timeout_sec: 5
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Dir != "/tmp/other-cache" {
		t.Errorf("cache dir = %q", cfg.Cache.Dir)
	}
	if cfg.Cache.SimilarityThreshold != 0.9 {
		t.Errorf("similarity threshold = %g, want 0.9", cfg.Cache.SimilarityThreshold)
	}
	if got := cfg.SandboxTimeout(); got != 5*time.Second {
		t.Errorf("sandbox timeout = %v, want 5s", got)
	}

	// Untouched sections keep their defaults.
	if cfg.Profile.SampleSize != 1000 {
		t.Errorf("sample size = %d, want default 1000", cfg.Profile.SampleSize)
	}
	if cfg.Generator.MatchThreshold != 0.8 {
		t.Errorf("match threshold = %g, want default 0.8", cfg.Generator.MatchThreshold)
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("generator:\n  api_key: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(apiKeyEnv, "from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generator.APIKey != "from-env" {
		t.Errorf("api key = %q, want env value", cfg.Generator.APIKey)
	}

	t.Setenv(apiKeyEnv, "")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generator.APIKey != "from-file" {
		t.Errorf("api key = %q, want file value", cfg.Generator.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cache: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed file accepted")
	}
}
