package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vtoa/internal/batch"
	"vtoa/internal/config"
	"vtoa/internal/deps"
	"vtoa/internal/discover"
	"vtoa/internal/logging"
	"vtoa/internal/pipeline"
	"vtoa/internal/preflight"
	"vtoa/internal/services"
	"vtoa/internal/silence"
	"vtoa/internal/stageexec"
)

// errConversionFailed is returned after the summary has already reported the
// failures; main exits non-zero without printing it again.
var errConversionFailed = errors.New("one or more files failed to convert")

type convertOptions struct {
	removeSilence bool
	useML         bool
	normalize     bool
	// track is 1-based.
	track       int
	workers     int
	suffix      string
	interactive bool

	// prompted is set once the interactive answers replace the config toggles.
	prompted bool
}

// apply copies the flags the user set (or answered) onto cfg.
func (o *convertOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := func(name string) bool {
		return o.prompted || cmd.Flags().Changed(name)
	}
	if changed("remove-silence") {
		cfg.Conversion.RemoveSilence = o.removeSilence
	}
	if changed("ml") {
		cfg.Conversion.UseMLDetection = o.useML
		if o.useML {
			cfg.Conversion.RemoveSilence = true
		}
	}
	if changed("normalize") {
		cfg.Conversion.Normalize = o.normalize
	}
	if changed("track") {
		if o.track < 1 {
			return services.Wrap(services.ErrConfiguration, "config", "", fmt.Sprintf("--track must be 1 or greater, got %d", o.track), nil)
		}
		cfg.Conversion.TrackIndex = o.track - 1
	}
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers = o.workers
	}
	if cmd.Flags().Changed("suffix") {
		cfg.Audio.Suffix = o.suffix
	}
	return cfg.Validate()
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [directory]",
		Short: "Convert every video file in a directory to audio",
		Long: `Convert every supported video file in a directory (non-recursive).

Each file is extracted to audio, optionally stripped of silence and loudness
normalized, and written next to the source as <name><suffix><extension>.
A failed file never stops the rest of the batch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runConvert(cmd, ctx, *cfg, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.removeSilence, "remove-silence", false, "Remove stretches of silence")
	flags.BoolVar(&opts.useML, "ml", false, "Detect speech with the external speech detector (implies --remove-silence)")
	flags.BoolVar(&opts.normalize, "normalize", false, "Normalize loudness for listening")
	flags.IntVar(&opts.track, "track", 1, "Audio track to use (1-based)")
	flags.IntVar(&opts.workers, "workers", 1, "Number of files converted at once")
	flags.StringVar(&opts.suffix, "suffix", "", "Output name suffix (default from config, \"_audio\")")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "Ask for the directory and conversion options")
	return cmd
}

func runConvert(cmd *cobra.Command, ctx *commandContext, cfg config.Config, opts *convertOptions, args []string) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderBanner("Video to Audio Converter"))
	fmt.Fprintln(out)

	var dir string
	if len(args) == 1 {
		dir = stripQuotes(args[0])
	}
	if dir == "" || opts.interactive {
		if !opts.interactive && !stdinIsTerminal(cmd.InOrStdin()) {
			return services.Wrap(services.ErrConfiguration, "config", "", "media directory required (pass it as an argument or use --interactive)", nil)
		}
		p := newPrompter(cmd.InOrStdin(), out)
		if dir == "" {
			typed, err := p.directory()
			if err != nil {
				return err
			}
			dir = typed
		}
		if err := p.preferences(opts); err != nil {
			return err
		}
		opts.prompted = true
	}

	if err := opts.apply(cmd, &cfg); err != nil {
		return err
	}
	job := cfg.Job()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}
	if check := preflight.CheckDirectoryAccess("Media directory", abs); !check.Passed {
		fmt.Fprintf(out, "\nError: Directory not found or not accessible: %s\n", dir)
		return services.Wrap(services.ErrConfiguration, "preflight", "", check.Detail, nil)
	}
	fmt.Fprintf(out, "Directory: %s\n", abs)

	logger, err := ctx.newLogger(&cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	runID := uuid.NewString()

	ffmpeg := deps.ResolveFFmpeg(cfg.FFmpeg.Binary)
	if !ffmpeg.Available {
		return services.Wrap(services.ErrToolNotFound, "startup", "", "ffmpeg: "+ffmpeg.Detail, nil)
	}
	ffprobe := deps.ResolveFFprobe(cfg.FFmpeg.FFprobeBinary, ffmpeg.Command)
	ffprobeBin := ""
	if ffprobe.Available {
		ffprobeBin = ffprobe.Command
	} else {
		logger.Debug("ffprobe unavailable; audio track pre-check disabled", logging.String("detail", ffprobe.Detail))
	}

	lock, err := batch.LockDirectory(cfg.Paths.LockDir, abs)
	if err != nil {
		return err
	}
	defer lock.Release()

	fmt.Fprintln(out, "Searching for video files...")
	candidates, err := discover.Discover(abs)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(out, "\nNo video files found in directory.")
		fmt.Fprintln(out, "Supported formats: .mp4, .mov, .avi, .mkv, .webm, and more")
		return nil
	}
	fmt.Fprintf(out, "\nFound %d video file(s)\n\n", len(candidates))

	executor := stageexec.New(logger, stageexec.WithTimeout(cfg.StageTimeout()))
	strategy := silence.Select(job, silence.OptionsFromConfig(&cfg, ffmpeg.Command, ffprobeBin, executor, logger))
	if strategy.Degraded {
		fmt.Fprintln(out, renderStatusLine("Speech detector", statusWarn, "not found; using threshold silence detection", colorize))
	}
	proc, err := pipeline.New(job, pipeline.Options{
		FFmpeg:   ffmpeg.Command,
		FFprobe:  ffprobeBin,
		Executor: executor,
		Strategy: strategy,
		Logger:   logger,
		RunID:    runID,
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = services.WithRunID(runCtx, runID)

	fmt.Fprintln(out, renderBanner("Processing Files"))
	printer := newProgressPrinter(out, job, cfg.Batch.Workers, colorize)
	runner := batch.New(proc, logger, batch.WithWorkers(cfg.Batch.Workers), batch.WithProgress(printer.print))
	report := runner.Run(runCtx, candidates)

	printSummary(out, report, colorize)

	switch {
	case report.Failed() > 0:
		return errConversionFailed
	case report.Skipped() > 0:
		return context.Canceled
	}
	return nil
}
