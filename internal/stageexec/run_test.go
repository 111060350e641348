package stageexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vtoa/internal/logging"
	"vtoa/internal/services"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunSuccess(t *testing.T) {
	bin := writeScript(t, `echo "progress" >&2; exit 0`)
	exec := New(logging.NewNop())

	result, err := exec.Run(context.Background(), Request{Stage: "extract", Binary: bin, Args: []string{"-y", "out.m4a"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Stderr, "progress") {
		t.Fatalf("expected stderr captured, got %q", result.Stderr)
	}
}

func TestRunNonZeroExitPreservesStderr(t *testing.T) {
	bin := writeScript(t, `printf 'line1\nInvalid data found when processing input\n' >&2; exit 3`)
	exec := New(logging.NewNop())

	result, err := exec.Run(context.Background(), Request{Stage: "extract", Binary: bin})
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	var failure *ToolFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *ToolFailure, got %T", err)
	}
	if failure.ExitCode != 3 || result.ExitCode != 3 {
		t.Fatalf("unexpected exit code: %d / %d", failure.ExitCode, result.ExitCode)
	}
	if failure.Stderr != "line1\nInvalid data found when processing input\n" {
		t.Fatalf("stderr must be verbatim, got %q", failure.Stderr)
	}
	if services.Classify(err) != services.KindExternalToolFailure {
		t.Fatalf("unexpected kind %q", services.Classify(err))
	}
}

func TestRunMissingBinary(t *testing.T) {
	exec := New(logging.NewNop())
	_, err := exec.Run(context.Background(), Request{Stage: "extract", Binary: filepath.Join(t.TempDir(), "ffmpeg")})
	if !errors.Is(err, services.ErrToolNotFound) {
		t.Fatalf("expected tool-not-found, got %v", err)
	}

	_, err = exec.Run(context.Background(), Request{Stage: "extract", Binary: "definitely-not-a-real-binary-vtoa"})
	if !errors.Is(err, services.ErrToolNotFound) {
		t.Fatalf("expected tool-not-found for PATH lookup, got %v", err)
	}
}

func TestRunDoesNotStartWhenCanceled(t *testing.T) {
	runner := &countingRunner{}
	exec := New(logging.NewNop(), WithRunner(runner))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Run(ctx, Request{Stage: "normalize", Binary: "ffmpeg"})
	if !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("runner should not be called, got %d", runner.calls)
	}
}

func TestRunLetsInFlightStageFinishAfterCancel(t *testing.T) {
	bin := writeScript(t, `sleep 0.3; exit 0`)
	exec := New(logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := exec.Run(ctx, Request{Stage: "extract", Binary: bin})
	if err != nil {
		t.Fatalf("in-flight stage should complete, got %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected clean exit, got %d", result.ExitCode)
	}
}

func TestRunTimeoutKillsStage(t *testing.T) {
	bin := writeScript(t, `exec sleep 5`)
	exec := New(logging.NewNop(), WithTimeout(100*time.Millisecond))

	start := time.Now()
	_, err := exec.Run(context.Background(), Request{Stage: "normalize", Binary: bin})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("timeout did not kill the process promptly: %v", elapsed)
	}
}

func TestTail(t *testing.T) {
	text := "a\nb\n\nc\nd\ne\nf\n"
	if got := Tail(text, TailLines); got != "b\nc\nd\ne\nf" {
		t.Fatalf("unexpected tail %q", got)
	}
	if got := Tail("", 5); got != "" {
		t.Fatalf("expected empty tail, got %q", got)
	}
}

type countingRunner struct {
	calls int
}

func (r *countingRunner) Run(context.Context, string, []string) (int, string, error) {
	r.calls++
	return 0, "", nil
}
