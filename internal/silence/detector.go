package silence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"vtoa/internal/config"
	"vtoa/internal/logging"
	"vtoa/internal/media/ffprobe"
	"vtoa/internal/services"
	"vtoa/internal/stageexec"
	"vtoa/internal/transcode"
)

// Scope hands out temp paths that are removed when the candidate finishes.
type Scope interface {
	Allocate(label, ext string) string
	Release(path string)
}

// Detector produces the audio filter used by the silence removal stage.
type Detector interface {
	Name() string
	Filter(ctx context.Context, input string, scope Scope) (string, error)
}

// ThresholdDetector drops every gap quieter than the configured level.
type ThresholdDetector struct {
	Params config.SilenceParams
}

// Name implements Detector.
func (ThresholdDetector) Name() string { return "threshold" }

// Filter implements Detector. It never fails.
func (d ThresholdDetector) Filter(context.Context, string, Scope) (string, error) {
	return transcode.SilenceFilter(d.Params), nil
}

// MLDetector keeps only speech found by an external voice-activity helper.
type MLDetector struct {
	FFmpeg     string
	FFprobe    string
	SampleRate int
	// Buffer pads each speech span on both sides, in seconds.
	Buffer float64
	Speech SpeechDetector

	executor *stageexec.Executor
	probe    func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	remove   func(string) error
}

// NewMLDetector wires a detector that decodes through executor.
func NewMLDetector(executor *stageexec.Executor, speech SpeechDetector, ffmpegBin, ffprobeBin string, sampleRate int, buffer float64) *MLDetector {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &MLDetector{
		FFmpeg:     ffmpegBin,
		FFprobe:    ffprobeBin,
		SampleRate: sampleRate,
		Buffer:     buffer,
		Speech:     speech,
		executor:   executor,
		probe:      ffprobe.Inspect,
		remove:     os.Remove,
	}
}

// Name implements Detector.
func (*MLDetector) Name() string { return "ml" }

// Filter implements Detector. Failures that a threshold pass could still
// recover from match services.ErrMLUnavailable; a missing ffmpeg and
// cancellation are returned as-is.
func (d *MLDetector) Filter(ctx context.Context, input string, scope Scope) (string, error) {
	wav := scope.Allocate("vad", ".wav")
	defer func() {
		if err := d.remove(wav); err == nil || errors.Is(err, os.ErrNotExist) {
			scope.Release(wav)
		}
	}()

	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-i", input,
		"-vn", "-ac", "1", "-ar", strconv.Itoa(d.SampleRate),
		"-f", "wav", "-y", wav,
	}
	if _, err := d.executor.Run(ctx, stageexec.Request{Stage: "speech decode", Binary: d.FFmpeg, Args: args}); err != nil {
		if errors.Is(err, services.ErrToolNotFound) || errors.Is(err, services.ErrCanceled) {
			return "", err
		}
		return "", services.Wrap(services.ErrMLUnavailable, "speech detection", "decode", "", err)
	}

	probe, err := d.probe(ctx, d.FFprobe, input)
	if err != nil {
		if errors.Is(err, services.ErrCanceled) || ctx.Err() != nil {
			return "", services.Wrap(services.ErrCanceled, "speech detection", "probe duration", "", err)
		}
		// A missing ffprobe only disables this detector, so the cause is kept
		// as text and does not match services.ErrToolNotFound.
		return "", fmt.Errorf("%w: speech detection: probe duration: %v", services.ErrMLUnavailable, err)
	}
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return "", services.Wrap(services.ErrMLUnavailable, "speech detection", "probe duration", "input has no duration", nil)
	}

	segments, err := d.Speech.Detect(ctx, wav)
	if err != nil {
		return "", err
	}
	spans := Expand(segments, d.Buffer, duration)
	if len(spans) == 0 {
		return "", services.Wrap(services.ErrMLUnavailable, "speech detection", "segments",
			fmt.Sprintf("no usable speech within %.1fs", duration), nil)
	}
	return SelectFilter(spans), nil
}

// ShouldFallBack reports whether err from the ML path may be retried once
// with threshold detection.
func ShouldFallBack(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrToolNotFound),
		errors.Is(err, services.ErrCanceled),
		errors.Is(err, context.Canceled),
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrTimeout):
		return false
	}
	return errors.Is(err, services.ErrMLUnavailable) || errors.Is(err, services.ErrExternalTool)
}

func warnFallback(logger *slog.Logger, from, to Detector, err error) {
	logging.WarnWithContext(logger, "speech detection failed; retrying with threshold detection", "silence_fallback",
		logging.String("detector", from.Name()),
		logging.String("fallback_detector", to.Name()),
		logging.String(logging.FieldErrorKind, string(services.Classify(err))),
		logging.Error(err),
		logging.String(logging.FieldImpact, "quiet non-speech passages are kept"),
		logging.String(logging.FieldErrorHint, "check the [vad] command with `vtoa check`"),
	)
}
