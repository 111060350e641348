package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"vtoa/internal/logging"
	"vtoa/internal/services"
)

// TempPrefix marks every pipeline-owned file so stale sweeps can find them.
const TempPrefix = ".vtoa-"

// Scope owns the temp artifacts of one candidate. Every path handed out by
// Allocate is deleted by Cleanup unless it was Released first.
type Scope struct {
	dir    string
	stem   string
	runID  string
	logger *slog.Logger
	remove func(string) error

	mu    sync.Mutex
	next  int
	paths []string
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithRemover swaps the file removal function (for testing).
func WithRemover(fn func(string) error) ScopeOption {
	return func(s *Scope) {
		if fn != nil {
			s.remove = fn
		}
	}
}

// NewScope creates a scope placing temps beside candidate. runID namespaces
// names so concurrent batches over the same directory never collide.
func NewScope(candidate, runID string, logger *slog.Logger, opts ...ScopeOption) *Scope {
	base := filepath.Base(candidate)
	s := &Scope{
		dir:    filepath.Dir(candidate),
		stem:   strings.TrimSuffix(base, filepath.Ext(base)),
		runID:  shortID(runID),
		logger: logging.NewComponentLogger(logger, "staging"),
		remove: os.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allocate registers and returns a new temp path, e.g.
// ".vtoa-lecture-1a2b3c4d-1-extract.m4a". The file is not created.
func (s *Scope) Allocate(label, ext string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	name := fmt.Sprintf("%s%s-%s-%d-%s%s", TempPrefix, s.stem, s.runID, s.next, label, ext)
	path := filepath.Join(s.dir, name)
	s.paths = append(s.paths, path)
	return path
}

// Release drops path from the scope so Cleanup leaves it alone. The pipeline
// releases the last stage output right after moving it onto the final path.
func (s *Scope) Release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.paths {
		if p == path {
			s.paths = append(s.paths[:i], s.paths[i+1:]...)
			return
		}
	}
}

// Paths returns the currently registered temp paths.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Cleanup removes every registered temp. Missing files are fine. Failures are
// logged and returned for inspection but must never fail the candidate.
func (s *Scope) Cleanup() []CleanupError {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var errs []CleanupError
	for _, path := range paths {
		err := s.remove(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		errs = append(errs, CleanupError{Path: path, Error: fmt.Errorf("%w: %w", services.ErrCleanup, err)})
		logging.WarnWithContext(s.logger, "failed to remove temp artifact", "temp_cleanup_failed",
			logging.String("temp_path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check directory permissions; `vtoa clean` removes leftovers"),
			logging.String(logging.FieldImpact, "temp file left beside the source"),
		)
	}
	return errs
}

func shortID(id string) string {
	id = strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if id == "" {
		return "run"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
