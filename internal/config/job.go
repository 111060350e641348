package config

import "strings"

// SilenceParams are the threshold detector settings rendered into silenceremove.
type SilenceParams struct {
	ThresholdDB     float64
	DurationSeconds float64
}

// LoudnessParams are the loudnorm targets.
type LoudnessParams struct {
	Integrated float64
	Range      float64
	TruePeak   float64
}

// Job is the immutable per-run conversion setting threaded into the command
// builder and the pipeline. It is passed by value and never read from globals.
type Job struct {
	RemoveSilence  bool
	UseMLDetection bool
	Normalize      bool
	// TrackIndex is the 0-based audio stream index (ffmpeg 0:a:N).
	TrackIndex int

	Silence             SilenceParams
	Loudness            LoudnessParams
	Codec               string
	Bitrate             string
	OutputSuffix        string
	OutputExt           string
	SpeechBufferSeconds float64
}

// DefaultJob returns the documented defaults: extract only, track 0, AAC 160k,
// "_audio" suffix, -55 dB / 1.2 s silence, -16 LUFS / LRA 11 / TP -1.5.
func DefaultJob() Job {
	cfg := Default()
	return cfg.Job()
}

// Job derives the per-run conversion settings from the loaded configuration.
func (c *Config) Job() Job {
	return Job{
		RemoveSilence:  c.Conversion.RemoveSilence,
		UseMLDetection: c.Conversion.UseMLDetection,
		Normalize:      c.Conversion.Normalize,
		TrackIndex:     c.Conversion.TrackIndex,
		Silence: SilenceParams{
			ThresholdDB:     c.Silence.ThresholdDB,
			DurationSeconds: c.Silence.DurationSeconds,
		},
		Loudness: LoudnessParams{
			Integrated: c.Loudness.Integrated,
			Range:      c.Loudness.Range,
			TruePeak:   c.Loudness.TruePeak,
		},
		Codec:               c.Audio.Codec,
		Bitrate:             c.Audio.Bitrate,
		OutputSuffix:        c.Audio.Suffix,
		OutputExt:           c.Audio.Extension,
		SpeechBufferSeconds: c.VAD.BufferSeconds,
	}
}

// Validate reports the first problem that would make every candidate fail.
// Failures match services.ErrConfiguration.
func (j Job) Validate() error {
	switch {
	case j.TrackIndex < 0:
		return invalid("track index %d must be >= 0", j.TrackIndex)
	case strings.TrimSpace(j.Codec) == "":
		return invalid("audio codec must be set")
	case !bitratePattern.MatchString(j.Bitrate):
		return invalid("audio bitrate %q must look like 160k", j.Bitrate)
	case len(j.OutputExt) < 2 || j.OutputExt[0] != '.':
		return invalid("output extension %q must start with a dot", j.OutputExt)
	case strings.ContainsAny(j.OutputSuffix, `/\`):
		return invalid("output suffix must not contain path separators")
	}
	if j.RemoveSilence {
		if !finite(j.Silence.ThresholdDB) || j.Silence.ThresholdDB >= 0 {
			return invalid("silence threshold must be a negative dB value")
		}
		if !finite(j.Silence.DurationSeconds) || j.Silence.DurationSeconds <= 0 {
			return invalid("silence duration must be positive")
		}
		if j.UseMLDetection && (!finite(j.SpeechBufferSeconds) || j.SpeechBufferSeconds < 0) {
			return invalid("speech buffer must be >= 0")
		}
	}
	if j.Normalize {
		if !finite(j.Loudness.Integrated) || !finite(j.Loudness.Range) || !finite(j.Loudness.TruePeak) {
			return invalid("loudness targets must be finite")
		}
	}
	return nil
}

// StageCount is 1 + RemoveSilence + Normalize.
func (j Job) StageCount() int {
	n := 1
	if j.RemoveSilence {
		n++
	}
	if j.Normalize {
		n++
	}
	return n
}
