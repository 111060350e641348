package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vtoa/internal/config"
	"vtoa/internal/logging"
	"vtoa/internal/pipeline"
	"vtoa/internal/services"
	"vtoa/internal/testsupport"
)

type fakeProcessor struct {
	mu      sync.Mutex
	started []string
	fn      func(ctx context.Context, candidate string) pipeline.Outcome
}

func (f *fakeProcessor) Process(ctx context.Context, candidate string) pipeline.Outcome {
	f.mu.Lock()
	f.started = append(f.started, candidate)
	f.mu.Unlock()
	return f.fn(ctx, candidate)
}

func succeed(_ context.Context, candidate string) pipeline.Outcome {
	return pipeline.Outcome{Source: candidate, Succeeded: true}
}

func TestRunIsolatesFailures(t *testing.T) {
	stub := testsupport.StubFFmpeg(t, testsupport.FailWhenArgsContain("b.mp4", "b.mp4: Invalid data found when processing input"))
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	testsupport.WriteFile(t, a, 100)
	testsupport.WriteFile(t, b, 100)

	p, err := pipeline.New(config.DefaultJob(), pipeline.Options{FFmpeg: stub.Path, Logger: logging.NewNop(), RunID: "run"})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	report := New(p, logging.NewNop()).Run(context.Background(), []string{a, b})

	if report.Total() != 2 || report.Succeeded() != 1 || report.Failed() != 1 || report.Skipped() != 0 {
		t.Fatalf("unexpected counts total=%d ok=%d failed=%d skipped=%d",
			report.Total(), report.Succeeded(), report.Failed(), report.Skipped())
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Source != b {
		t.Fatalf("expected b to fail, got %+v", failures)
	}
	if !strings.Contains(failures[0].Reason(), "Invalid data found") {
		t.Fatalf("expected stderr tail in reason, got %q", failures[0].Reason())
	}
	if _, err := os.Stat(filepath.Join(dir, "a_audio.m4a")); err != nil {
		t.Fatalf("a should be converted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b_audio.m4a")); !os.IsNotExist(err) {
		t.Fatal("b must not leave an output behind")
	}
}

func TestRunKeepsSubmissionOrderWithWorkers(t *testing.T) {
	candidates := []string{"slow", "medium", "fast", "instant"}
	delays := map[string]time.Duration{"slow": 60 * time.Millisecond, "medium": 30 * time.Millisecond, "fast": 10 * time.Millisecond}
	var running, peak atomic.Int32
	proc := &fakeProcessor{fn: func(ctx context.Context, c string) pipeline.Outcome {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(delays[c])
		running.Add(-1)
		return succeed(ctx, c)
	}}

	report := New(proc, logging.NewNop(), WithWorkers(2)).Run(context.Background(), candidates)

	for i, o := range report.Outcomes {
		if o.Source != candidates[i] {
			t.Fatalf("outcome %d is %s, want %s", i, o.Source, candidates[i])
		}
	}
	if peak.Load() > 2 {
		t.Fatalf("worker limit exceeded: %d", peak.Load())
	}
	if report.Succeeded() != 4 {
		t.Fatalf("expected all succeeded, got %d", report.Succeeded())
	}
}

func TestRunSequentialByDefault(t *testing.T) {
	var running atomic.Int32
	overlap := false
	proc := &fakeProcessor{fn: func(ctx context.Context, c string) pipeline.Outcome {
		if running.Add(1) > 1 {
			overlap = true
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return succeed(ctx, c)
	}}
	New(proc, logging.NewNop()).Run(context.Background(), []string{"a", "b", "c"})
	if overlap {
		t.Fatal("default runner must process one candidate at a time")
	}
	if strings.Join(proc.started, ",") != "a,b,c" {
		t.Fatalf("unexpected start order %v", proc.started)
	}
}

func TestRunCancellationSkipsUnstarted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc := &fakeProcessor{fn: func(ctx context.Context, c string) pipeline.Outcome {
		if c == "b" {
			cancel()
		}
		return succeed(ctx, c)
	}}

	report := New(proc, logging.NewNop()).Run(ctx, []string{"a", "b", "c", "d"})

	if report.Succeeded() != 2 || report.Skipped() != 2 || report.Failed() != 0 {
		t.Fatalf("unexpected counts ok=%d skipped=%d failed=%d", report.Succeeded(), report.Skipped(), report.Failed())
	}
	for _, o := range report.Outcomes[2:] {
		if !o.Skipped || !errors.Is(o.Err, services.ErrCanceled) {
			t.Fatalf("expected skipped outcome, got %+v", o)
		}
	}
	if len(proc.started) != 2 {
		t.Fatalf("no candidate may start after cancel, started %v", proc.started)
	}
}

func TestRunReportsProgress(t *testing.T) {
	var events []Progress
	proc := &fakeProcessor{fn: func(ctx context.Context, c string) pipeline.Outcome {
		if c == "b" {
			return pipeline.Outcome{Source: c, Reasons: []string{"Extract failed: boom"}}
		}
		return succeed(ctx, c)
	}}
	New(proc, logging.NewNop(), WithProgress(func(p Progress) { events = append(events, p) })).
		Run(context.Background(), []string{"a", "b"})

	if len(events) != 4 {
		t.Fatalf("expected start and done events for each candidate, got %d", len(events))
	}
	if events[0].Label() != "[1/2]" || events[0].Done {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	last := events[3]
	if last.Label() != "[2/2]" || !last.Done || last.Outcome.Succeeded {
		t.Fatalf("unexpected last event %+v", last)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	report := New(&fakeProcessor{fn: succeed}, logging.NewNop()).Run(context.Background(), nil)
	if report.Total() != 0 || report.Failed() != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestLockDirectoryIsExclusive(t *testing.T) {
	lockDir := filepath.Join(t.TempDir(), "locks")
	media := t.TempDir()

	first, err := LockDirectory(lockDir, media)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if filepath.Dir(first.Path()) != lockDir {
		t.Fatalf("lock file should live in lock dir, got %s", first.Path())
	}
	if _, err := LockDirectory(lockDir, media); !errors.Is(err, ErrDirectoryBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
	other, err := LockDirectory(lockDir, t.TempDir())
	if err != nil {
		t.Fatalf("different directory should lock independently: %v", err)
	}
	_ = other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := LockDirectory(lockDir, media)
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	_ = again.Release()

	entries, _ := os.ReadDir(media)
	if len(entries) != 0 {
		t.Fatal("locking must not add files to the media directory")
	}
}

func TestLockDirectoryDisabled(t *testing.T) {
	lock, err := LockDirectory("", t.TempDir())
	if err != nil || lock.Path() != "" || lock.Release() != nil {
		t.Fatalf("expected no-op lock, got %+v %v", lock, err)
	}
}
