// Package config loads runtime configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the runtime configuration.
type Config struct {
	Database DatabaseConfig
	Flow     FlowConfig
	Packs    PacksConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"QUITFLOW_DB_PATH" env-default:"quitflow.db"`
}

type FlowConfig struct {
	Context      string `yaml:"context" env:"QUITFLOW_FLOW_CONTEXT" env-default:"onboarding"`
	RewardAmount int64  `yaml:"reward_amount" env:"QUITFLOW_REWARD_AMOUNT" env-default:"10"`
	RewardType   string `yaml:"reward_type" env:"QUITFLOW_REWARD_TYPE" env-default:"QUESTION_ANSWER"`
}

type PacksConfig struct {
	Dir string `yaml:"dir" env:"QUITFLOW_PACKS_DIR" env-default:"packs"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"QUITFLOW_LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from path, falling back to environment
// variables (and tag defaults) when the file is absent. An empty path
// skips the file entirely.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
			return &cfg, nil
		}
		slog.Debug("config file not found, using environment", "path", path)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading config from environment: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps the configured level string onto a slog.Level.
// Unknown values fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
