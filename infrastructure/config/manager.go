package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for a dotted key that names no config field
var ErrUnknownKey = errors.New("unknown config key")

// field binds a dotted key to its location in Config
type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error { *ptr(c) = strings.TrimSpace(v); return nil },
	}
}

func intField(ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "k"))
			if err != nil {
				return fmt.Errorf("expected a number, got %q", v)
			}
			*ptr(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"paths.output_directory": stringField(func(c *Config) *string { return &c.Paths.OutputDirectory }),
	"audio.format":           stringField(func(c *Config) *string { return &c.Audio.Format }),
	"audio.bitrate":          intField(func(c *Config) *int { return &c.Audio.Bitrate }),
	"ffmpeg.path":            stringField(func(c *Config) *string { return &c.FFmpeg.Path }),
	"logging.level":          stringField(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format":         stringField(func(c *Config) *string { return &c.Logging.Format }),
	"logging.file":           stringField(func(c *Config) *string { return &c.Logging.File }),
	"logging.max_size_mb":    intField(func(c *Config) *int { return &c.Logging.MaxSizeMB }),
	"logging.max_backups":    intField(func(c *Config) *int { return &c.Logging.MaxBackups }),
	"logging.max_age_days":   intField(func(c *Config) *int { return &c.Logging.MaxAgeDays }),
}

// ConfigManager reads and updates config entries by dotted key
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Keys returns every settable key in sorted order
func (m *ConfigManager) Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the current value of key
func (m *ConfigManager) Get(key string) (string, error) {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f.get(m.config), nil
}

// Set updates key, validates the result and saves the file.
// The in-memory config is left unchanged when validation fails.
func (m *ConfigManager) Set(key, value string) error {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	updated := *m.config
	if err := f.set(&updated, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*m.config = updated
	return Save(m.config, m.configPath)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
