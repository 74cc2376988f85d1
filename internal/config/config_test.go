package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model != "base" {
		t.Errorf("expected base model, got %s", cfg.Model)
	}
	if cfg.MaxRadius != 30.0 {
		t.Errorf("expected 30 kpc cutoff, got %f", cfg.MaxRadius)
	}
	if cfg.Samples != 1000 {
		t.Errorf("expected 1000 samples, got %d", cfg.Samples)
	}
	if cfg.Observer.X != -8.178 {
		t.Errorf("expected Sun at x=-8.178, got %f", cfg.Observer.X)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = "twistX"
	cfg.Samples = 250
	cfg.Seed = 7
	cfg.LOS.Longitude = 90
	cfg.LOS.Latitude = -30

	path := filepath.Join(t.TempDir(), "galmag.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadPartialOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := &Config{}
	*partial = *DefaultConfig()
	partial.Model = "spur"
	if err := Save(path, partial); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Model != "spur" {
		t.Errorf("expected spur, got %s", loaded.Model)
	}
	if loaded.Step != DefaultStep {
		t.Errorf("expected default step, got %f", loaded.Step)
	}
}
