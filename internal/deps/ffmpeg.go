package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	SourceConfig  = "config"
	SourceBundled = "bundled"
	SourcePath    = "PATH"
)

// executable is swapped in tests.
var executable = os.Executable

// ResolveFFmpeg finds the ffmpeg binary. Lookup order: the configured path,
// a copy bundled next to the vtoa executable (either beside it or under
// ffmpeg/<os>/), then "ffmpeg" on PATH. A configured path that does not
// resolve is reported as unavailable rather than silently replaced.
func ResolveFFmpeg(configured string) Status {
	return resolveTool("FFmpeg", "ffmpeg", "Runs every conversion stage", configured, "")
}

// ResolveFFprobe finds ffprobe: the configured path, a sibling of the
// resolved ffmpeg, a bundled copy, then PATH. ffprobe is optional.
func ResolveFFprobe(configured, ffmpegPath string) Status {
	status := resolveTool("FFprobe", "ffprobe", "Audio track pre-check and duration probe", configured, ffmpegPath)
	status.Optional = true
	return status
}

func resolveTool(name, base, description, configured, siblingOf string) Status {
	status := Status{Name: name, Description: description}

	if configured = strings.TrimSpace(configured); configured != "" {
		status.Command = configured
		status.Source = SourceConfig
		resolved, err := exec.LookPath(configured)
		if err != nil {
			status.Detail = fmt.Sprintf("configured binary %q not found", configured)
			return status
		}
		status.Command = resolved
		status.Available = true
		return status
	}

	var candidates []string
	if siblingOf != "" && filepath.IsAbs(siblingOf) {
		candidates = append(candidates, filepath.Join(filepath.Dir(siblingOf), executableName(base)))
	}
	candidates = append(candidates, bundledCandidates(base)...)
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			status.Command = candidate
			status.Source = SourceBundled
			status.Available = true
			return status
		}
	}

	if resolved, err := exec.LookPath(base); err == nil {
		status.Command = resolved
		status.Source = SourcePath
		status.Available = true
		return status
	}

	status.Command = base
	status.Detail = fmt.Sprintf("binary %q not found", base)
	return status
}

// bundledCandidates lists where a release archive places the tool relative
// to the vtoa executable.
func bundledCandidates(base string) []string {
	self, err := executable()
	if err != nil || self == "" {
		return nil
	}
	if resolved, err := filepath.EvalSymlinks(self); err == nil {
		self = resolved
	}
	dir := filepath.Dir(self)
	name := executableName(base)
	return []string{
		filepath.Join(dir, name),
		filepath.Join(dir, "ffmpeg", platformDir(), name),
	}
}

func platformDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	default:
		return runtime.GOOS
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
