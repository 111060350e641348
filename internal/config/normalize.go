package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFFmpeg(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeVAD()
	c.normalizeLogging()
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaultBatchWorkers
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = defaultLockDir
	}
	if c.Paths.LockDir, err = expandPath(strings.TrimSpace(c.Paths.LockDir)); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() error {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	// Bare command names stay PATH lookups; anything with a separator is a file path.
	if strings.ContainsAny(c.FFmpeg.Binary, `/\`) || strings.HasPrefix(c.FFmpeg.Binary, "~") {
		expanded, err := expandPath(c.FFmpeg.Binary)
		if err != nil {
			return fmt.Errorf("ffmpeg.binary: %w", err)
		}
		c.FFmpeg.Binary = expanded
	}
	if strings.ContainsAny(c.FFmpeg.FFprobeBinary, `/\`) || strings.HasPrefix(c.FFmpeg.FFprobeBinary, "~") {
		expanded, err := expandPath(c.FFmpeg.FFprobeBinary)
		if err != nil {
			return fmt.Errorf("ffmpeg.ffprobe_binary: %w", err)
		}
		c.FFmpeg.FFprobeBinary = expanded
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.Codec = strings.TrimSpace(c.Audio.Codec)
	if c.Audio.Codec == "" {
		c.Audio.Codec = defaultAudioCodec
	}
	c.Audio.Bitrate = strings.ToLower(strings.TrimSpace(c.Audio.Bitrate))
	if c.Audio.Bitrate == "" {
		c.Audio.Bitrate = defaultAudioBitrate
	}
	ext := strings.ToLower(strings.TrimSpace(c.Audio.Extension))
	if ext == "" {
		ext = defaultAudioExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Audio.Extension = ext
	// An empty suffix is legal: it selects the bare "name.m4a" naming variant.
	c.Audio.Suffix = strings.TrimSpace(c.Audio.Suffix)
}

func (c *Config) normalizeVAD() {
	c.VAD.Command = strings.TrimSpace(c.VAD.Command)
	if c.VAD.SampleRate <= 0 {
		c.VAD.SampleRate = defaultVADSampleRate
	}
	args := c.VAD.Args[:0]
	for _, arg := range c.VAD.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.VAD.Args = args
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
