package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories used outside the media directory.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	LockDir string `toml:"lock_dir"`
}

// FFmpeg locates the transcoder and bounds individual stage runtimes.
type FFmpeg struct {
	// Binary overrides ffmpeg resolution. Empty means bundled sidecar, then PATH.
	Binary        string `toml:"binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	// StageTimeoutSeconds kills a stage that runs longer. 0 disables the limit.
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
}

// Audio describes the encoded output artifact.
type Audio struct {
	Codec     string `toml:"codec"`
	Bitrate   string `toml:"bitrate"`
	Extension string `toml:"extension"`
	Suffix    string `toml:"suffix"`
}

// Conversion holds the per-run stage toggles. CLI flags override these.
type Conversion struct {
	RemoveSilence  bool `toml:"remove_silence"`
	UseMLDetection bool `toml:"use_ml_detection"`
	Normalize      bool `toml:"normalize"`
	TrackIndex     int  `toml:"track_index"`
}

// Silence holds the threshold detector parameters.
type Silence struct {
	ThresholdDB     float64 `toml:"threshold_db"`
	DurationSeconds float64 `toml:"duration_seconds"`
}

// Loudness holds the loudnorm targets.
type Loudness struct {
	Integrated float64 `toml:"integrated"`
	Range      float64 `toml:"range"`
	TruePeak   float64 `toml:"true_peak"`
}

// VAD configures the external speech-activity detector used by ML silence removal.
type VAD struct {
	Command       string   `toml:"command"`
	Args          []string `toml:"args"`
	SampleRate    int      `toml:"sample_rate"`
	BufferSeconds float64  `toml:"buffer_seconds"`
}

// Batch controls scheduling across candidates.
type Batch struct {
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vtoa.
//
// Configuration sections by subsystem:
//   - Paths: log and lock directories
//   - FFmpeg: transcoder lookup and stage timeout
//   - Audio: output codec, bitrate, extension, and name suffix
//   - Conversion: default stage toggles and audio track
//   - Silence / Loudness: filter parameters
//   - VAD: external speech detector for ML silence removal
//   - Batch: worker count
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	FFmpeg     FFmpeg     `toml:"ffmpeg"`
	Audio      Audio      `toml:"audio"`
	Conversion Conversion `toml:"conversion"`
	Silence    Silence    `toml:"silence"`
	Loudness   Loudness   `toml:"loudness"`
	VAD        VAD        `toml:"vad"`
	Batch      Batch      `toml:"batch"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vtoa.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and lock directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.LockDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StageTimeout returns the per-stage limit, or 0 when disabled.
func (c *Config) StageTimeout() time.Duration {
	if c.FFmpeg.StageTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.FFmpeg.StageTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
