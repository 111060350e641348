package preflight

import (
	"context"
	"strings"

	"vtoa/internal/config"
	"vtoa/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and tool checks for cfg. mediaDir is
// checked when non-empty.
func RunAll(ctx context.Context, cfg *config.Config, mediaDir string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if strings.TrimSpace(mediaDir) != "" {
		results = append(results, CheckDirectoryAccess("Media directory", mediaDir))
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Paths.LockDir != "" {
		results = append(results, CheckDirectoryAccess("Lock directory", cfg.Paths.LockDir))
	}

	ffmpeg := deps.ResolveFFmpeg(cfg.FFmpeg.Binary)
	if ffmpeg.Available {
		results = append(results, CheckFFmpegRuns(ctx, ffmpeg.Command))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
