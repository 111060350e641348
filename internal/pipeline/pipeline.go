package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"vtoa/internal/config"
	"vtoa/internal/fileutil"
	"vtoa/internal/logging"
	"vtoa/internal/media/ffprobe"
	"vtoa/internal/services"
	"vtoa/internal/silence"
	"vtoa/internal/stageexec"
	"vtoa/internal/staging"
	"vtoa/internal/transcode"
)

// Options carries the collaborators shared by every candidate in a batch.
type Options struct {
	FFmpeg string
	// FFprobe enables the audio track pre-check. Empty skips it.
	FFprobe  string
	Executor *stageexec.Executor
	// Strategy decides the silence filter. Nil means threshold detection.
	Strategy *silence.Strategy
	Logger   *slog.Logger
	// RunID namespaces temp artifacts.
	RunID string
}

// Pipeline processes candidates for one batch. It is safe for concurrent use.
type Pipeline struct {
	job      config.Job
	ffmpeg   string
	ffprobe  string
	executor *stageexec.Executor
	strategy *silence.Strategy
	logger   *slog.Logger
	runID    string
	probe    func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// New validates job and returns a pipeline. Invalid settings match
// services.ErrConfiguration and must abort the batch before any work starts.
func New(job config.Job, opts Options) (*Pipeline, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.FFmpeg) == "" {
		return nil, services.Wrap(services.ErrToolNotFound, "pipeline", "", "ffmpeg binary not resolved", nil)
	}
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	executor := opts.Executor
	if executor == nil {
		executor = stageexec.New(logger)
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = silence.Select(job, silence.Options{FFmpeg: opts.FFmpeg, FFprobe: opts.FFprobe, Executor: executor, Logger: logger})
	}
	return &Pipeline{
		job:      job,
		ffmpeg:   opts.FFmpeg,
		ffprobe:  strings.TrimSpace(opts.FFprobe),
		executor: executor,
		strategy: strategy,
		logger:   logger,
		runID:    opts.RunID,
		probe:    ffprobe.Inspect,
	}, nil
}

// Job returns the settings this pipeline applies.
func (p *Pipeline) Job() config.Job {
	return p.job
}

// Process converts candidate. It never panics on tool failures and always
// removes its temp artifacts before returning. Cancelling ctx lets the
// running stage finish, then stops before the next one.
//
// A multi-stage run only touches the final path once every stage succeeded,
// so a failure leaves any earlier output in place. A single-stage run has
// ffmpeg overwrite the final path directly; if it fails, whatever is at that
// path is already truncated and is removed.
func (p *Pipeline) Process(ctx context.Context, candidate string) Outcome {
	start := time.Now()
	ctx = services.WithCandidate(ctx, candidate)
	logger := logging.WithContext(ctx, p.logger)
	outcome := Outcome{Source: candidate}

	fail := func(stage transcode.Stage, err error) Outcome {
		outcome.Err = err
		outcome.Reasons = append(outcome.Reasons, failureReason(stage, err))
		outcome.Duration = time.Since(start)
		logging.ErrorWithContext(logger, "conversion failed", "candidate_failed",
			logging.String(logging.FieldErrorKind, string(services.Classify(err))),
			logging.String("reason", outcome.Reason()),
			logging.Error(err),
		)
		return outcome
	}

	final, err := OutputPath(candidate, p.job)
	if err != nil {
		return fail("", err)
	}
	outcome.Output = final

	if err := p.checkTrack(ctx, logger, candidate); err != nil {
		return fail("", err)
	}

	stages := transcode.Sequence(p.job)
	logger.Info("conversion started",
		logging.String(logging.FieldEventType, "candidate_start"),
		logging.Strings("stages", stageNames(stages)),
		logging.String("output", final),
	)

	scope := staging.NewScope(candidate, p.runID, p.logger)
	defer scope.Cleanup()

	input := candidate
	for i, stage := range stages {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return fail(stage, services.Wrap(services.ErrCanceled, string(stage), "", "batch canceled before stage start", err))
			}
		}

		output := final
		if len(stages) > 1 {
			output = scope.Allocate(string(stage), p.job.OutputExt)
		}

		if err := p.runStage(ctx, stage, input, output, scope, &outcome); err != nil {
			if len(stages) == 1 {
				p.removePartial(logger, output)
			}
			return fail(stage, err)
		}
		if !fileutil.NonEmptyFile(output) {
			if len(stages) == 1 {
				p.removePartial(logger, output)
			}
			return fail(stage, services.Wrap(services.ErrExternalTool, string(stage), "verify output", "stage produced no output", nil))
		}
		outcome.Stages = append(outcome.Stages, stage)
		input = output
	}

	if input != final {
		if err := fileutil.Move(input, final); err != nil {
			return fail("", services.Wrap(services.ErrExternalTool, "finalize", "move", final, err))
		}
		scope.Release(input)
	}

	outcome.Succeeded = true
	outcome.Duration = time.Since(start)
	logger.Info("conversion completed",
		logging.String(logging.FieldEventType, "candidate_complete"),
		logging.String("output", final),
		logging.Bool("silence_fallback", outcome.FellBack),
		logging.Duration("elapsed", outcome.Duration),
	)
	return outcome
}

func (p *Pipeline) runStage(ctx context.Context, stage transcode.Stage, input, output string, scope *staging.Scope, outcome *Outcome) error {
	stageCtx := services.WithStage(ctx, string(stage))
	execute := func(filter string) error {
		var (
			args []string
			err  error
		)
		if filter == "" {
			args, err = transcode.Build(stage, input, output, p.job)
		} else {
			args, err = transcode.BuildWithFilter(stage, input, output, filter, p.job)
		}
		if err != nil {
			return err
		}
		_, err = p.executor.Run(stageCtx, stageexec.Request{Stage: string(stage), Binary: p.ffmpeg, Args: args})
		return err
	}

	if stage != transcode.StageRemoveSilence {
		return execute("")
	}
	fellBack, err := p.strategy.Apply(stageCtx, input, scope, execute)
	if fellBack {
		outcome.FellBack = true
	}
	return err
}

// checkTrack fails early when the requested audio track does not exist.
// Probe problems are not fatal; the extract stage reports the real error.
func (p *Pipeline) checkTrack(ctx context.Context, logger *slog.Logger, candidate string) error {
	if p.ffprobe == "" {
		return nil
	}
	result, err := p.probe(ctx, p.ffprobe, candidate)
	if err != nil {
		if errors.Is(err, services.ErrToolNotFound) {
			logger.Debug("ffprobe unavailable; skipping audio track check", logging.Error(err))
			return nil
		}
		logging.WarnWithContext(logger, "audio track check failed", "track_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "extract stage runs without a track pre-check"),
			logging.String(logging.FieldErrorHint, "the file may be damaged"),
		)
		return nil
	}
	count := result.AudioStreamCount()
	if p.job.TrackIndex >= count {
		return services.Wrap(services.ErrNoAudioTrack, "probe", "",
			fmt.Sprintf("audio track %d requested but %s has %d audio stream(s)", p.job.TrackIndex+1, filepath.Base(candidate), count), nil)
	}
	return nil
}

func (p *Pipeline) removePartial(logger *slog.Logger, path string) {
	if err := fileutil.RemoveIfExists(path); err != nil {
		logging.WarnWithContext(logger, "failed to remove partial output", "partial_cleanup_failed",
			logging.String("output", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a truncated audio file remains beside the source"),
		)
	}
}

func failureReason(stage transcode.Stage, err error) string {
	detail := err.Error()
	var failure *stageexec.ToolFailure
	if errors.As(err, &failure) {
		detail = failure.Tail(stageexec.TailLines)
		if detail == "" {
			detail = fmt.Sprintf("exit status %d", failure.ExitCode)
		}
	}
	if stage == "" {
		return detail
	}
	return stage.Label() + " failed: " + detail
}

func stageNames(stages []transcode.Stage) []string {
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = string(stage)
	}
	return names
}
