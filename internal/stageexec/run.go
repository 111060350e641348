package stageexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"vtoa/internal/logging"
	"vtoa/internal/services"
)

// TailLines is how many trailing stderr lines are shown in summaries.
const TailLines = 5

// Request is one external tool invocation.
type Request struct {
	// Stage names the invocation for logs and error messages.
	Stage  string
	Binary string
	Args   []string
}

// Result is the completed process outcome.
type Result struct {
	ExitCode int
	Stderr   string
	Duration time.Duration
}

// Runner launches a process and reports its exit code and stderr. A launch
// failure is returned as err; a non-zero exit is not an error at this level.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (exitCode int, stderr string, err error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, binary string, args []string) (int, string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	isolate(cmd)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if err == nil {
		return 0, stderr.String(), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), stderr.String(), nil
	}
	return -1, stderr.String(), err
}

// ToolFailure is a non-zero exit. Stderr is kept verbatim.
type ToolFailure struct {
	Stage    string
	ExitCode int
	Stderr   string
}

func (f *ToolFailure) Error() string {
	msg := fmt.Sprintf("%s failed (exit status %d)", f.Stage, f.ExitCode)
	if tail := f.Tail(TailLines); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Is lets errors.Is(err, services.ErrExternalTool) match.
func (f *ToolFailure) Is(target error) bool {
	return target == services.ErrExternalTool
}

// Tail returns the last n non-empty stderr lines joined by newlines.
func (f *ToolFailure) Tail(n int) string {
	return Tail(f.Stderr, n)
}

// Tail returns the last n non-empty lines of text.
func Tail(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimRight(line, "\r "); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	if n > 0 && len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

// Executor runs one stage synchronously. It never retries.
type Executor struct {
	runner  Runner
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithRunner swaps the process runner (for testing).
func WithRunner(r Runner) Option {
	return func(e *Executor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithTimeout kills a stage that runs longer than d. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// New constructs an Executor.
func New(logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		runner: ExecRunner{},
		logger: logging.NewComponentLogger(logger, "stageexec"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes req. Cancelling ctx does not interrupt a process that already
// started; the stage runs to completion so no half-written artifact is left
// behind. Only the configured timeout kills a running process.
func (e *Executor) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Binary) == "" {
		return Result{}, services.Wrap(services.ErrToolNotFound, req.Stage, "launch", "no binary configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, services.Wrap(services.ErrCanceled, req.Stage, "launch", "batch canceled before stage start", err)
	}

	stageCtx := services.WithStage(ctx, req.Stage)
	logger := logging.WithContext(stageCtx, e.logger)

	runCtx := context.WithoutCancel(stageCtx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, e.timeout)
		defer cancel()
	}

	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("binary", req.Binary),
	)
	logger.Debug("stage command", logging.Strings("args", req.Args))

	start := time.Now()
	exitCode, stderr, err := e.runner.Run(runCtx, req.Binary, req.Args)
	result := Result{ExitCode: exitCode, Stderr: stderr, Duration: time.Since(start)}

	switch {
	case err != nil && isNotFound(err):
		err = services.Wrap(services.ErrToolNotFound, req.Stage, "launch", fmt.Sprintf("%s binary not found", req.Binary), err)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		err = services.Wrap(services.ErrTimeout, req.Stage, "run", fmt.Sprintf("exceeded %s", e.timeout), runCtx.Err())
	case err != nil:
		err = services.Wrap(services.ErrExternalTool, req.Stage, "launch", req.Binary, err)
	case exitCode != 0:
		err = &ToolFailure{Stage: req.Stage, ExitCode: exitCode, Stderr: stderr}
	}

	if err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String(logging.FieldErrorKind, string(services.Classify(err))),
			logging.Int("exit_code", exitCode),
			logging.Duration("stage_duration", result.Duration),
			logging.String("stderr", stderr),
			logging.Error(err),
		)
		return result, err
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", result.Duration),
	)
	return result, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
