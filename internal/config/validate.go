package config

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"vtoa/internal/services"
)

const maxBatchWorkers = 64

var bitratePattern = regexp.MustCompile(`^[1-9][0-9]*k?$`)

// Validate ensures the configuration is usable. Every failure matches
// services.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateFilters(); err != nil {
		return err
	}
	if err := c.validateVAD(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}

func (c *Config) validateAudio() error {
	if c.Audio.Codec == "" {
		return invalid("audio.codec must be set")
	}
	if !bitratePattern.MatchString(c.Audio.Bitrate) {
		return invalid("audio.bitrate %q must look like 160k", c.Audio.Bitrate)
	}
	if strings.ContainsAny(c.Audio.Suffix, `/\`) {
		return invalid("audio.suffix must not contain path separators")
	}
	if len(c.Audio.Extension) < 2 || c.Audio.Extension[0] != '.' || strings.ContainsAny(c.Audio.Extension[1:], `./\`) {
		return invalid("audio.extension %q is not a file extension", c.Audio.Extension)
	}
	return nil
}

func (c *Config) validateConversion() error {
	if c.Conversion.TrackIndex < 0 {
		return invalid("conversion.track_index must be >= 0")
	}
	if c.FFmpeg.StageTimeoutSeconds < 0 {
		return invalid("ffmpeg.stage_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateFilters() error {
	if !finite(c.Silence.ThresholdDB) || c.Silence.ThresholdDB >= 0 {
		return invalid("silence.threshold_db must be a negative dB value")
	}
	if !finite(c.Silence.DurationSeconds) || c.Silence.DurationSeconds <= 0 {
		return invalid("silence.duration_seconds must be positive")
	}
	if !finite(c.Loudness.Integrated) || c.Loudness.Integrated < -70 || c.Loudness.Integrated > -5 {
		return invalid("loudness.integrated must be between -70 and -5 LUFS")
	}
	if !finite(c.Loudness.Range) || c.Loudness.Range < 1 || c.Loudness.Range > 50 {
		return invalid("loudness.range must be between 1 and 50")
	}
	if !finite(c.Loudness.TruePeak) || c.Loudness.TruePeak < -9 || c.Loudness.TruePeak > 0 {
		return invalid("loudness.true_peak must be between -9 and 0 dBTP")
	}
	return nil
}

func (c *Config) validateVAD() error {
	if c.Conversion.UseMLDetection && c.VAD.Command == "" {
		return invalid("vad.command must be set when conversion.use_ml_detection is true")
	}
	if !finite(c.VAD.BufferSeconds) || c.VAD.BufferSeconds < 0 {
		return invalid("vad.buffer_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 || c.Batch.Workers > maxBatchWorkers {
		return invalid("batch.workers must be between 1 and %d", maxBatchWorkers)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
