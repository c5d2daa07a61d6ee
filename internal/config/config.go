// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads settings from literature-match.yaml, the
// environment and command-line flags, and sets up the global logger.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/literature-match/internal/library"
	"github.com/pdiddy/literature-match/internal/store"
	"github.com/pdiddy/literature-match/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g.
// LITERATURE_MATCH_MATCH_TOP_K.
const EnvPrefix = "LITERATURE_MATCH"

// Name is the config file name without extension.
const Name = "literature-match"

// Setup points v at the config file (explicit path, or the search path
// . then ~/.config/literature-match/), the environment, and the defaults.
func Setup(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	m := types.DefaultMatchConfig()

	v.SetDefault("library.endpoint", library.DefaultEndpoint)
	v.SetDefault("library.cache_path", "")
	v.SetDefault("library.timeout", 10*time.Second)
	v.SetDefault("library.user_agent", "literature-match/0.1")
	v.SetDefault("match.top_k", m.TopK)
	v.SetDefault("match.auto_match_threshold", m.AutoMatchThreshold)
	v.SetDefault("match.auto_match_gap", m.AutoMatchGap)
	v.SetDefault("match.needs_llm_threshold", m.NeedsLLMThreshold)
	v.SetDefault("match.year_boost", m.YearBoost)
	v.SetDefault("match.author_boost", m.AuthorBoost)
	v.SetDefault("match.workers", m.Workers)
	v.SetDefault("store.path", store.DefaultPath)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// ReadFile reads the config file if one is found. A missing file is not an
// error; the path of the file used is returned.
func ReadFile(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return "", nil
		}
		return "", eris.Wrap(err, "config: read file")
	}
	return v.ConfigFileUsed(), nil
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load builds a fresh viper instance, reads the optional config file and
// the environment, and returns the decoded config.
func Load(cfgFile string) (*types.Config, error) {
	v := viper.New()
	Setup(v, cfgFile)
	if _, err := ReadFile(v); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate checks thresholds and limits.
func Validate(cfg types.Config) error {
	m := cfg.Match
	for name, val := range map[string]float64{
		"match.auto_match_threshold": m.AutoMatchThreshold,
		"match.auto_match_gap":       m.AutoMatchGap,
		"match.needs_llm_threshold":  m.NeedsLLMThreshold,
		"match.year_boost":           m.YearBoost,
		"match.author_boost":         m.AuthorBoost,
	} {
		if val < 0 || val > 1 {
			return eris.Errorf("config: %s must be within [0,1], got %v", name, val)
		}
	}
	if m.NeedsLLMThreshold > m.AutoMatchThreshold {
		return eris.Errorf("config: match.needs_llm_threshold (%v) exceeds match.auto_match_threshold (%v)",
			m.NeedsLLMThreshold, m.AutoMatchThreshold)
	}
	if m.TopK < 1 {
		return eris.Errorf("config: match.top_k must be at least 1, got %d", m.TopK)
	}
	if m.Workers < 1 {
		return eris.Errorf("config: match.workers must be at least 1, got %d", m.Workers)
	}
	if cfg.Library.Timeout <= 0 {
		return eris.Errorf("config: library.timeout must be positive, got %s", cfg.Library.Timeout)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg types.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
