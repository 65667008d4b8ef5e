package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"video-to-audio/domain/conversion"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when --config is not given
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Audio   AudioConfig   `yaml:"audio"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig contains directory paths for media processing
type PathsConfig struct {
	OutputDirectory string `yaml:"output_directory"`
}

// AudioConfig contains audio extraction settings
type AudioConfig struct {
	Format  string `yaml:"format"`
	Bitrate int    `yaml:"bitrate"`
}

// FFmpegConfig locates the ffmpeg executable
type FFmpegConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Format:  string(conversion.DefaultFormat),
			Bitrate: int(conversion.DefaultBitrate),
		},
		FFmpeg: FFmpegConfig{
			Path: "ffmpeg",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads and parses the configuration from the specified YAML file.
// Fields the file leaves out keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns defaults when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Environment variables that override file values
const (
	EnvOutputDir = "VTA_OUTPUT_DIR"
	EnvFormat    = "VTA_FORMAT"
	EnvBitrate   = "VTA_BITRATE"
	EnvFFmpeg    = "VTA_FFMPEG"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvLogFile   = "LOG_FILE"
)

// ApplyEnv overrides file values with any environment variables that are set.
// lookup is normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvOutputDir); ok {
		c.Paths.OutputDirectory = v
	}
	if v, ok := lookup(EnvFormat); ok {
		c.Audio.Format = v
	}
	if v, ok := lookup(EnvBitrate); ok {
		b, err := conversion.ParseBitrate(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBitrate, err)
		}
		c.Audio.Bitrate = b.Kbps()
	}
	if v, ok := lookup(EnvFFmpeg); ok {
		c.FFmpeg.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.Logging.Format = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.Logging.File = v
	}
	return nil
}

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// Validate checks that enumerated values are ones the converter supports
func (c *Config) Validate() error {
	if _, err := conversion.ParseFormat(c.Audio.Format); err != nil {
		return fmt.Errorf("audio.format: %w", err)
	}
	if _, err := conversion.ParseBitrate(strconv.Itoa(c.Audio.Bitrate)); err != nil {
		return fmt.Errorf("audio.bitrate: %w", err)
	}
	if !contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format: expected console or json, got %q", c.Logging.Format)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
