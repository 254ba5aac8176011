package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Search.MaxResults != 50 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadParsesKDL(t *testing.T) {
	dir := t.TempDir()
	content := `log-level "debug"
cache {
    parsed-graphs 16
}
watch {
    enabled false
    debounce-ms 500
}
search {
    fuzzy-threshold 0.8
    max-results 25
}
`
	if err := os.WriteFile(filepath.Join(dir, ".kconfiglsp.kdl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Cache.ParsedGraphs != 16 {
		t.Errorf("Cache.ParsedGraphs = %d, want 16", cfg.Cache.ParsedGraphs)
	}
	if cfg.Watch.Enabled {
		t.Errorf("Watch.Enabled = true, want false")
	}
	if cfg.Watch.DebounceMs != 500 {
		t.Errorf("Watch.DebounceMs = %d, want 500", cfg.Watch.DebounceMs)
	}
	if cfg.Search.FuzzyThreshold != 0.8 {
		t.Errorf("Search.FuzzyThreshold = %v, want 0.8", cfg.Search.FuzzyThreshold)
	}
	if cfg.Search.MaxResults != 25 {
		t.Errorf("Search.MaxResults = %d, want 25", cfg.Search.MaxResults)
	}
}
