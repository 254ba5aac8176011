// Package config loads the server-level ambient configuration: log
// level, cache sizes, watch debounce and fuzzy-matching thresholds.
// This is distinct from a Context's environment map — it configures
// the server process itself, not any one build.
package config

// Config is the server-level settings loaded from a KDL file.
type Config struct {
	LogLevel string

	Cache struct {
		ParsedGraphs int // read from the KDL file; no component of the server consumes it
	}

	Watch struct {
		Enabled     bool
		DebounceMs  int
	}

	Search struct {
		FuzzyThreshold float64 // minimum go-edlib similarity score to include a symbol in completion
		MaxResults     int
	}
}

// Default returns the configuration used when no KDL file is present.
func Default() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.Cache.ParsedGraphs = 8
	cfg.Watch.Enabled = true
	cfg.Watch.DebounceMs = 200
	cfg.Search.FuzzyThreshold = 0.6
	cfg.Search.MaxResults = 50
	return cfg
}
