package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestConfigManager_GetSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	mgr := NewConfigManager(cfg, path)

	if err := mgr.Set("audio.bitrate", "320k"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	if err := mgr.Set("Paths.Output_Directory", " /srv/audio "); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}

	if got, _ := mgr.Get("audio.bitrate"); got != "320" {
		t.Errorf("Get(audio.bitrate) = %q, want 320", got)
	}
	if got, _ := mgr.Get("paths.output_directory"); got != "/srv/audio" {
		t.Errorf("Get(paths.output_directory) = %q, want /srv/audio", got)
	}

	saved, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if saved.Audio.Bitrate != 320 || saved.Paths.OutputDirectory != "/srv/audio" {
		t.Errorf("saved config = %+v", saved)
	}
}

func TestConfigManager_RejectsInvalid(t *testing.T) {
	cfg := Default()
	mgr := NewConfigManager(cfg, filepath.Join(t.TempDir(), "config.yaml"))

	if err := mgr.Set("audio.format", "flac"); err == nil {
		t.Error("Set(audio.format, flac) expected error")
	}
	if cfg.Audio.Format != "mp3" {
		t.Errorf("failed Set mutated config: format = %q", cfg.Audio.Format)
	}

	if err := mgr.Set("audio.bitrate", "loud"); err == nil {
		t.Error("Set(audio.bitrate, loud) expected error")
	}

	if err := mgr.Set("email.from", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Set(unknown) error = %v, want ErrUnknownKey", err)
	}
	if _, err := mgr.Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownKey", err)
	}
}

func TestConfigManager_Keys(t *testing.T) {
	keys := NewConfigManager(Default(), "").Keys()
	if len(keys) != len(fields) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(fields))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
}
