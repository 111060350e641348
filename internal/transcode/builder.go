package transcode

import (
	"fmt"
	"strconv"
	"strings"

	"vtoa/internal/config"
	"vtoa/internal/services"
)

// SilenceFilter renders the threshold silenceremove expression. stop_periods=-1
// removes every qualifying gap, not just leading and trailing silence.
func SilenceFilter(p config.SilenceParams) string {
	return fmt.Sprintf("silenceremove=stop_periods=-1:stop_duration=%s:stop_threshold=%sdB",
		formatNumber(p.DurationSeconds), formatNumber(p.ThresholdDB))
}

// LoudnessFilter renders the loudnorm expression.
func LoudnessFilter(p config.LoudnessParams) string {
	return fmt.Sprintf("loudnorm=I=%s:LRA=%s:TP=%s",
		formatNumber(p.Integrated), formatNumber(p.Range), formatNumber(p.TruePeak))
}

// Build returns the ffmpeg argument vector (without the binary) for a stage.
// It performs no I/O and returns identical vectors for identical inputs.
func Build(stage Stage, input, output string, job config.Job) ([]string, error) {
	var filter string
	switch stage {
	case StageRemoveSilence:
		filter = SilenceFilter(job.Silence)
	case StageNormalize:
		filter = LoudnessFilter(job.Loudness)
	}
	return BuildWithFilter(stage, input, output, filter, job)
}

// BuildWithFilter is Build with a caller-supplied audio filter. The silence
// strategy uses it to substitute a speech-derived expression.
func BuildWithFilter(stage Stage, input, output, filter string, job config.Job) ([]string, error) {
	if err := checkInputs(stage, input, output, filter, job); err != nil {
		return nil, err
	}

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-i", input}
	switch stage {
	case StageExtract:
		args = append(args, "-map", "0:a:"+strconv.Itoa(job.TrackIndex), "-vn")
	case StageRemoveSilence, StageNormalize:
		args = append(args, "-vn", "-af", filter)
	}
	args = append(args, "-c:a", job.Codec, "-b:a", job.Bitrate, "-y", output)
	return args, nil
}

func checkInputs(stage Stage, input, output, filter string, job config.Job) error {
	op := string(stage)
	switch {
	case !stage.Valid():
		return services.Wrap(services.ErrConfiguration, "build", "", fmt.Sprintf("unknown stage %q", stage), nil)
	case strings.TrimSpace(input) == "":
		return services.Wrap(services.ErrConfiguration, op, "build", "input path is empty", nil)
	case strings.TrimSpace(output) == "":
		return services.Wrap(services.ErrConfiguration, op, "build", "output path is empty", nil)
	case input == output:
		return services.Wrap(services.ErrConfiguration, op, "build", "input and output are the same file", nil)
	case job.TrackIndex < 0:
		return services.Wrap(services.ErrConfiguration, op, "build", fmt.Sprintf("track index %d must be >= 0", job.TrackIndex), nil)
	case strings.TrimSpace(job.Codec) == "" || strings.TrimSpace(job.Bitrate) == "":
		return services.Wrap(services.ErrConfiguration, op, "build", "codec and bitrate are required", nil)
	case stage != StageExtract && strings.TrimSpace(filter) == "":
		return services.Wrap(services.ErrConfiguration, op, "build", "audio filter is required", nil)
	}
	return nil
}

// formatNumber renders floats without trailing zeros: -55, 1.2, -1.5.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
