package silence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"vtoa/internal/services"
)

// SpeechDetector finds speech spans in a decoded WAV file.
type SpeechDetector interface {
	Detect(ctx context.Context, wavPath string) ([]Segment, error)
}

// CommandDetector runs an external voice-activity helper. The helper receives
// the WAV path as its last argument and prints JSON segments on stdout.
type CommandDetector struct {
	Command string
	Args    []string

	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandDetector creates a detector for the configured helper command.
func NewCommandDetector(command string, args []string) *CommandDetector {
	return &CommandDetector{
		Command: strings.TrimSpace(command),
		Args:    append([]string(nil), args...),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *CommandDetector) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	d.commandRunner = runner
}

// Detect implements SpeechDetector. Every failure matches
// services.ErrMLUnavailable so the caller can fall back.
func (d *CommandDetector) Detect(ctx context.Context, wavPath string) ([]Segment, error) {
	if d.Command == "" {
		return nil, services.Wrap(services.ErrMLUnavailable, "speech detection", "launch", "no detector command configured", nil)
	}
	args := append(append([]string(nil), d.Args...), wavPath)
	output, err := d.run(ctx, d.Command, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrCanceled, "speech detection", "run", "", ctx.Err())
		}
		return nil, services.Wrap(services.ErrMLUnavailable, "speech detection", "run", d.Command, err)
	}
	segments, err := ParseSegments(output)
	if err != nil {
		return nil, services.Wrap(services.ErrMLUnavailable, "speech detection", "parse", "", err)
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrMLUnavailable, "speech detection", "parse", "no speech detected", nil)
	}
	return segments, nil
}

func (d *CommandDetector) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if d.commandRunner != nil {
		return d.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return output, nil
}

// ParseSegments accepts either a bare array of {"start","end"} objects or an
// object with a "segments" array.
func ParseSegments(data []byte) ([]Segment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty detector output")
	}
	var segments []Segment
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
		return segments, nil
	}
	var wrapped struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return wrapped.Segments, nil
}
