package preflight

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"vtoa/internal/config"
	"vtoa/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFFmpegRuns executes "ffmpeg -version" and reports the version line.
func CheckFFmpegRuns(ctx context.Context, binary string) Result {
	const name = "FFmpeg version"

	if strings.TrimSpace(binary) == "" {
		return Result{Name: name, Detail: "ffmpeg not resolved"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, binary, "-hide_banner", "-version") //nolint:gosec
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("ffmpeg -version failed (%v)", err)}
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	if line == "" {
		line = "version unknown"
	}
	return Result{Name: name, Passed: true, Detail: strings.TrimSpace(line)}
}

// CheckSystemDeps resolves every external binary the configuration needs.
// The convert and check commands share it so both see the same lookup.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	ffmpeg := deps.ResolveFFmpeg(cfg.FFmpeg.Binary)
	ffprobe := deps.ResolveFFprobe(cfg.FFmpeg.FFprobeBinary, ffmpeg.Command)

	vad := deps.CheckBinaries([]deps.Requirement{{
		Name:        "Speech detector",
		Command:     cfg.VAD.Command,
		Description: "ML silence detection; threshold detection is used without it",
		Optional:    true,
	}})
	return append([]deps.Status{ffmpeg, ffprobe}, vad...)
}
