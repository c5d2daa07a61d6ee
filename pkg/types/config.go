// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds HTTP settings for fetching the library export.
type HTTPConfig struct {
	// Timeout bounds the whole fetch. A fetch that exceeds it fails the run.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header (e.g. "literature-match/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LibraryConfig selects where the library export is read from. CachePath
// wins over Endpoint when both are set.
type LibraryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the Better BibTeX JSON export URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// CachePath is a local Better BibTeX JSON export file.
	CachePath string `json:"cache_path" yaml:"cache_path" mapstructure:"cache_path"`
}

// MatchConfig holds the resolution thresholds.
type MatchConfig struct {
	// TopK caps the candidate list per reference (default 10).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// AutoMatchThreshold is the minimum top score for a similarity match.
	AutoMatchThreshold float64 `json:"auto_match_threshold" yaml:"auto_match_threshold" mapstructure:"auto_match_threshold"`

	// AutoMatchGap is the minimum separation between the top two scores.
	AutoMatchGap float64 `json:"auto_match_gap" yaml:"auto_match_gap" mapstructure:"auto_match_gap"`

	// NeedsLLMThreshold is the candidate-quality floor; below it a reference
	// is needs_review rather than needs_llm.
	NeedsLLMThreshold float64 `json:"needs_llm_threshold" yaml:"needs_llm_threshold" mapstructure:"needs_llm_threshold"`

	YearBoost   float64 `json:"year_boost" yaml:"year_boost" mapstructure:"year_boost"`
	AuthorBoost float64 `json:"author_boost" yaml:"author_boost" mapstructure:"author_boost"`

	// Workers bounds parallel resolution (default 8).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// DefaultMatchConfig returns the thresholds used when none are configured.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		TopK:               10,
		AutoMatchThreshold: 0.90,
		AutoMatchGap:       0.10,
		NeedsLLMThreshold:  0.25,
		YearBoost:          0.03,
		AuthorBoost:        0.03,
		Workers:            8,
	}
}

// StoreConfig locates the SQLite snapshot database.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every setting of the tool.
type Config struct {
	Library LibraryConfig `json:"library" yaml:"library" mapstructure:"library"`
	Match   MatchConfig   `json:"match" yaml:"match" mapstructure:"match"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
