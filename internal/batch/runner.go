package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"vtoa/internal/logging"
	"vtoa/internal/pipeline"
	"vtoa/internal/services"
)

// Processor converts a single candidate.
type Processor interface {
	Process(ctx context.Context, candidate string) pipeline.Outcome
}

// Progress is reported when a candidate starts and again when it finishes.
type Progress struct {
	// Index is 1-based.
	Index     int
	Total     int
	Candidate string
	Done      bool
	// Outcome is only meaningful when Done is true.
	Outcome pipeline.Outcome
}

// Label renders the "[i/N]" prefix.
func (p Progress) Label() string {
	return fmt.Sprintf("[%d/%d]", p.Index, p.Total)
}

// ProgressFunc receives progress events. Calls are serialized.
type ProgressFunc func(Progress)

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets how many candidates run at once. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 1 {
			r.workers = n
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// Runner drives a processor over an ordered candidate list.
type Runner struct {
	processor Processor
	workers   int
	progress  ProgressFunc
	logger    *slog.Logger
}

// New constructs a Runner. Candidates run one at a time unless WithWorkers
// raises the limit.
func New(processor Processor, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		processor: processor,
		workers:   1,
		logger:    logging.NewComponentLogger(logger, "batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every candidate and returns one outcome per candidate in
// submission order. A failing candidate never stops the batch. Once ctx is
// canceled no new candidate starts; running ones finish their current stage
// and the rest are reported as skipped.
func (r *Runner) Run(ctx context.Context, candidates []string) Report {
	start := time.Now()
	total := len(candidates)
	report := Report{Outcomes: make([]pipeline.Outcome, total)}
	logger := logging.WithContext(ctx, r.logger)

	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("candidates", total),
		logging.Int("workers", r.workers),
	)

	events := make(chan Progress)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		for event := range events {
			if r.progress != nil {
				r.progress(event)
			}
		}
	}()

	var group errgroup.Group
	group.SetLimit(r.workers)
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			report.Outcomes[i] = skipped(candidate)
			continue
		}
		group.Go(func() error {
			if ctx.Err() != nil {
				report.Outcomes[i] = skipped(candidate)
				return nil
			}
			event := Progress{Index: i + 1, Total: total, Candidate: candidate}
			events <- event
			logger.Info("processing candidate",
				logging.String(logging.FieldEventType, "candidate_scheduled"),
				logging.String(logging.FieldProgress, event.Label()),
				logging.String("file", filepath.Base(candidate)),
			)

			outcome := r.processor.Process(ctx, candidate)
			report.Outcomes[i] = outcome

			event.Done = true
			event.Outcome = outcome
			events <- event
			return nil
		})
	}
	_ = group.Wait()
	close(events)
	<-relayDone

	report.Duration = time.Since(start)
	attrs := []logging.Attr{
		logging.Int("total", report.Total()),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Int("skipped", report.Skipped()),
		logging.Duration("elapsed", report.Duration),
	}
	if report.Skipped() > 0 {
		logging.WarnWithContext(logger, "batch interrupted", "batch_interrupted",
			append(attrs, logging.String(logging.FieldImpact, "remaining files were not converted"))...)
	} else {
		attrs = append(attrs, logging.String(logging.FieldEventType, "batch_complete"))
		logger.Info("batch completed", logging.Args(attrs...)...)
	}
	return report
}

func skipped(candidate string) pipeline.Outcome {
	return pipeline.Outcome{
		Source:  candidate,
		Skipped: true,
		Err:     services.Wrap(services.ErrCanceled, "batch", "", "not started", nil),
		Reasons: []string{"Skipped: batch canceled before this file started"},
	}
}
