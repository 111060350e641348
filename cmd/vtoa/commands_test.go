package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vtoa/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, 1)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Stages per file: 1")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	requireFile(t, target)

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsInvalidFile(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	if err := os.WriteFile(env.configPath, []byte("[batch]\nworkers = 1000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected validation error")
	}
	requireContains(t, err.Error(), "batch.workers")
}

func TestCheckReportsTools(t *testing.T) {
	env := setupCLITestEnv(t, 1)

	out, _, err := runCLI(t, []string{"check", env.mediaDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, env.stub.Path)
	requireContains(t, out, "Speech detector")
	requireContains(t, out, "missing (optional)")
	requireContains(t, out, "Media directory:")
	requireContains(t, out, "[OK]")
}

func TestCheckFailsWithoutFFmpeg(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	env.cfg.FFmpeg.Binary = filepath.Join(t.TempDir(), "missing-ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"check"}, env.configPath, "")
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("expected errCheckFailed, got %v", err)
	}
	requireContains(t, out, "missing")
}

func TestCleanRemovesOnlyStaleTempFiles(t *testing.T) {
	env := setupCLITestEnv(t, 1)
	stale := filepath.Join(env.mediaDir, ".vtoa-lecture-abcd1234-1-extract.m4a")
	fresh := filepath.Join(env.mediaDir, ".vtoa-talk-abcd1234-1-extract.m4a")
	source := filepath.Join(env.mediaDir, "lecture.mp4")
	for _, path := range []string{stale, fresh, source} {
		testsupport.WriteFile(t, path, 64)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(source, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	out, _, err := runCLI(t, []string{"clean", "--dry-run", env.mediaDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("clean --dry-run: %v", err)
	}
	requireContains(t, out, filepath.Base(stale))
	requireContains(t, out, "1 file(s) would be removed")
	requireFile(t, stale)

	out, _, err = runCLI(t, []string{"clean", env.mediaDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	requireContains(t, out, "Removed 1 stale temp file(s)")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale temp file should be removed")
	}
	requireFile(t, fresh)
	requireFile(t, source)
}
