package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vtoa/internal/logging"
)

// CleanStaleResult contains the outcome of a stale temp sweep.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// ArtifactInfo describes a leftover temp file.
type ArtifactInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListArtifacts returns pipeline temp files directly inside dir.
func ListArtifacts(dir string) ([]ArtifactInfo, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var artifacts []ArtifactInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), TempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, ArtifactInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return artifacts, nil
}

// CleanStale removes temp files in dir older than maxAge. They are left by
// runs that were killed before their cleanup guard ran.
func CleanStale(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	artifacts, err := ListArtifacts(dir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, artifact := range artifacts {
		if ctx.Err() != nil {
			break
		}
		if !artifact.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(artifact.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: artifact.Path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale temp artifact",
					logging.String("temp_path", artifact.Path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "stale_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check directory permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, artifact.Path)
		if logger != nil {
			logger.Info("removed stale temp artifact",
				logging.String("temp_path", artifact.Path),
				logging.Duration("age", time.Since(artifact.ModTime)),
				logging.String(logging.FieldEventType, "stale_cleanup"),
			)
		}
	}
	return result
}
