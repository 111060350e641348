package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vtoa/internal/services"
)

// Supported video file extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".flv":  true,
	".wmv":  true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
	".3gp":  true,
	".ogv":  true,
	".ts":   true,
	".mts":  true,
	".m2ts": true,
	".vob":  true,
	".divx": true,
	".f4v":  true,
}

// Supported reports whether name carries a video extension, ignoring case.
func Supported(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// Extensions returns the supported extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(videoExtensions))
	for ext := range videoExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Discover lists video files directly inside dir. Subdirectories are not
// descended into. Symlinks count when they resolve to a regular file. The
// result is sorted by lower-cased file name so runs are repeatable.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "discover", "stat", dir, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "discover", "", fmt.Sprintf("%s is not a directory", dir), nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !Supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		} else if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.SliceStable(files, func(i, j int) bool {
		a, b := strings.ToLower(filepath.Base(files[i])), strings.ToLower(filepath.Base(files[j]))
		if a == b {
			return files[i] < files[j]
		}
		return a < b
	})
	return files, nil
}
