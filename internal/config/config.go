package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/loykin/vrchime/internal/logger"
	"github.com/loykin/vrchime/internal/process"
)

// EnvPrefix prefixes environment overrides, e.g. VRCHIME_LOG_LEVEL.
const EnvPrefix = "VRCHIME"

// Settings represents the top-level TOML structure.
type Settings struct {
	StorePath string        `toml:"store_path" mapstructure:"store_path"`
	Log       LogConfig     `toml:"log" mapstructure:"log"`
	Launch    LaunchConfig  `toml:"launch" mapstructure:"launch"`
	History   HistoryConfig `toml:"history" mapstructure:"history"`
	Server    ServerConfig  `toml:"server" mapstructure:"server"`
	Metrics   MetricsConfig `toml:"metrics" mapstructure:"metrics"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	Color      bool   `toml:"color" mapstructure:"color"`
	TimeStamps bool   `toml:"timestamps" mapstructure:"timestamps"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

type LaunchConfig struct {
	ArgMode string `toml:"arg_mode" mapstructure:"arg_mode"`
	Reap    bool   `toml:"reap" mapstructure:"reap"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	DSN     string `toml:"dsn" mapstructure:"dsn"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type MetricsConfig struct {
	Listen string `toml:"listen" mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store_path", "")
	v.SetDefault("log.level", logger.LevelInfo)
	v.SetDefault("log.format", logger.FormatText)
	v.SetDefault("log.color", false)
	v.SetDefault("log.timestamps", true)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.compress", false)
	v.SetDefault("launch.arg_mode", string(process.ArgModeLegacy))
	v.SetDefault("launch.reap", false)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dsn", "")
	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("metrics.listen", "")
}

// Load reads settings from the TOML file at path, layered over defaults and
// under VRCHIME_* environment overrides. An empty path skips the file.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks enumerated values.
func (s Settings) Validate() error {
	var errs []error
	if _, err := process.ParseArgMode(s.Launch.ArgMode); err != nil {
		errs = append(errs, fmt.Errorf("launch.arg_mode: %w", err))
	}
	if _, err := logger.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(s.Log.Format) {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", s.Log.Format))
	}
	return errors.Join(errs...)
}

// ArgMode returns the parsed launch argument mode, legacy when unset.
func (s Settings) ArgMode() process.ArgMode {
	m, err := process.ParseArgMode(s.Launch.ArgMode)
	if err != nil {
		return process.ArgModeLegacy
	}
	return m
}

// LoggerConfig converts the [log] table into a logger.Config.
func (s Settings) LoggerConfig() logger.Config {
	return logger.Config{
		Slog: logger.SlogConfig{
			Level:      s.Log.Level,
			Format:     s.Log.Format,
			Color:      s.Log.Color,
			TimeStamps: s.Log.TimeStamps,
		},
		File: logger.FileConfig{
			Path:       s.Log.File,
			MaxSizeMB:  s.Log.MaxSizeMB,
			MaxBackups: s.Log.MaxBackups,
			MaxAgeDays: s.Log.MaxAgeDays,
			Compress:   s.Log.Compress,
		},
	}
}

// HistoryDSN returns the configured DSN or a sqlite file under the user
// config directory.
func (s Settings) HistoryDSN() string {
	if s.History.DSN != "" {
		return s.History.DSN
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return "sqlite://" + filepath.Join(dir, "VRChime", "history.db")
}
