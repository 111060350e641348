package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vtoa/internal/config"
	"vtoa/internal/services"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "vtoa", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".local", "share", "vtoa", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "state", "vtoa", "locks"); cfg.Paths.LockDir != want {
		t.Fatalf("unexpected lock dir: got %q want %q", cfg.Paths.LockDir, want)
	}
	if cfg.Audio.Suffix != "_audio" || cfg.Audio.Extension != ".m4a" {
		t.Fatalf("unexpected naming defaults: %+v", cfg.Audio)
	}
	if cfg.Batch.Workers != 1 {
		t.Fatalf("expected sequential default, got %d workers", cfg.Batch.Workers)
	}
	if cfg.StageTimeout() != 0 {
		t.Fatalf("expected no stage timeout by default, got %v", cfg.StageTimeout())
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
log_dir = "~/logs"

[ffmpeg]
binary = "~/bin/ffmpeg"
stage_timeout_seconds = 90

[audio]
suffix = ""
extension = "M4A"

[conversion]
remove_silence = true
normalize = true
track_index = 2

[batch]
workers = 4

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.FFmpeg.Binary != filepath.Join(tempHome, "bin", "ffmpeg") {
		t.Fatalf("expected expanded ffmpeg path, got %q", cfg.FFmpeg.Binary)
	}
	if cfg.StageTimeout().Seconds() != 90 {
		t.Fatalf("unexpected stage timeout: %v", cfg.StageTimeout())
	}
	if cfg.Audio.Extension != ".m4a" || cfg.Audio.Suffix != "" {
		t.Fatalf("unexpected audio settings: %+v", cfg.Audio)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}

	job := cfg.Job()
	if !job.RemoveSilence || !job.Normalize || job.TrackIndex != 2 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.StageCount() != 3 {
		t.Fatalf("expected three stages, got %d", job.StageCount())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[audio]\nbitrat = \"160k\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative track", func(c *config.Config) { c.Conversion.TrackIndex = -1 }, "track_index"},
		{"bad bitrate", func(c *config.Config) { c.Audio.Bitrate = "fast" }, "audio.bitrate"},
		{"positive threshold", func(c *config.Config) { c.Silence.ThresholdDB = 3 }, "silence.threshold_db"},
		{"zero duration", func(c *config.Config) { c.Silence.DurationSeconds = 0 }, "silence.duration_seconds"},
		{"loud target", func(c *config.Config) { c.Loudness.Integrated = 0 }, "loudness.integrated"},
		{"ml without command", func(c *config.Config) {
			c.Conversion.UseMLDetection = true
			c.VAD.Command = ""
		}, "vad.command"},
		{"too many workers", func(c *config.Config) { c.Batch.Workers = 1000 }, "batch.workers"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"suffix separator", func(c *config.Config) { c.Audio.Suffix = "a/b" }, "audio.suffix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration marker, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Audio.Suffix != config.Default().Audio.Suffix {
		t.Fatalf("sample suffix drifted from defaults: %q", decoded.Audio.Suffix)
	}

	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LockDir = filepath.Join(base, "locks")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.LockDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
