package silence

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"vtoa/internal/config"
	"vtoa/internal/logging"
	"vtoa/internal/stageexec"
)

// Options carries the collaborators Select needs to build the ML path.
type Options struct {
	FFmpeg     string
	FFprobe    string
	VADCommand string
	VADArgs    []string
	SampleRate int
	Executor   *stageexec.Executor
	Logger     *slog.Logger

	// LookPath probes the detector command. Defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// Speech replaces the command-based detector (for testing).
	Speech SpeechDetector
}

// OptionsFromConfig maps the [vad] and [ffmpeg] sections onto Options.
func OptionsFromConfig(cfg *config.Config, ffmpegBin, ffprobeBin string, executor *stageexec.Executor, logger *slog.Logger) Options {
	return Options{
		FFmpeg:     ffmpegBin,
		FFprobe:    ffprobeBin,
		VADCommand: cfg.VAD.Command,
		VADArgs:    cfg.VAD.Args,
		SampleRate: cfg.VAD.SampleRate,
		Executor:   executor,
		Logger:     logger,
	}
}

// Strategy pairs the detector chosen for a batch with the one used when it
// fails. Fallback is nil when the primary is already the threshold detector.
type Strategy struct {
	Primary  Detector
	Fallback Detector
	// Degraded is set when ML detection was requested but the helper is missing.
	Degraded bool

	logger *slog.Logger
}

// NewStrategy pairs primary with an optional fallback detector.
func NewStrategy(primary, fallback Detector, logger *slog.Logger) *Strategy {
	return &Strategy{Primary: primary, Fallback: fallback, logger: logging.NewComponentLogger(logger, "silence")}
}

// Select picks the detector for a whole batch. The helper command is probed
// once here instead of once per file.
func Select(job config.Job, opts Options) *Strategy {
	logger := logging.NewComponentLogger(opts.Logger, "silence")
	threshold := ThresholdDetector{Params: job.Silence}
	if !job.UseMLDetection {
		return &Strategy{Primary: threshold, logger: logger}
	}

	speech := opts.Speech
	if speech == nil {
		lookPath := opts.LookPath
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		command := strings.TrimSpace(opts.VADCommand)
		if command == "" {
			warnUnavailable(logger, command, nil)
			return &Strategy{Primary: threshold, Degraded: true, logger: logger}
		}
		if _, err := lookPath(command); err != nil {
			warnUnavailable(logger, command, err)
			return &Strategy{Primary: threshold, Degraded: true, logger: logger}
		}
		speech = NewCommandDetector(command, opts.VADArgs)
	}

	executor := opts.Executor
	if executor == nil {
		executor = stageexec.New(logger)
	}
	ml := NewMLDetector(executor, speech, opts.FFmpeg, opts.FFprobe, opts.SampleRate, job.SpeechBufferSeconds)
	return &Strategy{Primary: ml, Fallback: threshold, logger: logger}
}

// Apply runs the silence stage through run, first with the primary filter and,
// when ShouldFallBack allows, once more with the fallback filter. It reports
// whether the fallback produced the result.
func (s *Strategy) Apply(ctx context.Context, input string, scope Scope, run func(filter string) error) (bool, error) {
	err := s.attempt(ctx, s.Primary, input, scope, run)
	if err == nil || s.Fallback == nil || !ShouldFallBack(err) || ctx.Err() != nil {
		return false, err
	}
	warnFallback(logging.WithContext(ctx, s.logger), s.Primary, s.Fallback, err)
	if err := s.attempt(ctx, s.Fallback, input, scope, run); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Strategy) attempt(ctx context.Context, d Detector, input string, scope Scope, run func(string) error) error {
	filter, err := d.Filter(ctx, input, scope)
	if err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Debug("silence filter selected",
		logging.String("detector", d.Name()),
		logging.String("filter", filter),
	)
	return run(filter)
}

func warnUnavailable(logger *slog.Logger, command string, err error) {
	attrs := []logging.Attr{
		logging.String("vad_command", command),
		logging.String(logging.FieldImpact, "threshold silence detection used for this batch"),
		logging.String(logging.FieldErrorHint, "install the speech detector or set [vad] command"),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(logger, "speech detector unavailable", "silence_ml_unavailable", attrs...)
}
