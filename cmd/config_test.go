package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"video-to-audio/infrastructure/config"
)

func TestRunConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()

	var out bytes.Buffer
	if err := RunConfigSetWithDependencies(cfg, path, "audio.format", "flac", &out); err == nil {
		t.Fatal("set audio.format flac expected error")
	}
	if err := RunConfigSetWithDependencies(cfg, path, "audio.format", "wav", &out); err != nil {
		t.Fatalf("set unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Set audio.format = wav") {
		t.Errorf("set output = %q", out.String())
	}

	out.Reset()
	if err := RunConfigGetWithDependencies(cfg, path, "audio.format", &out); err != nil {
		t.Fatalf("get unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "wav" {
		t.Errorf("get output = %q, want wav", out.String())
	}

	out.Reset()
	if err := RunConfigShowWithDependencies(cfg, path, &out); err != nil {
		t.Fatalf("show unexpected error: %v", err)
	}
	for _, want := range []string{"KEY", "audio.bitrate", "192", "paths.output_directory", "-"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out.String())
		}
	}

	if err := RunConfigGetWithDependencies(cfg, path, "email.from", &out); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("get unknown error = %v, want ErrUnknownKey", err)
	}
}

func TestRunFormats(t *testing.T) {
	var out bytes.Buffer
	if err := RunFormatsWithDependencies(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "mp3, wav, aac") || !strings.Contains(out.String(), "64, 128, 192, 256, 320") {
		t.Errorf("formats output = %q", out.String())
	}
}
