package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"vtoa/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "normalize", "ffmpeg", "exit status 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"normalize", "ffmpeg", "exit status 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "conversion failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"nil", nil, ""},
		{"config", services.Wrap(services.ErrConfiguration, "job", "validate", "bad track", nil), services.KindInvalidConfig},
		{"missing tool", services.Wrap(services.ErrToolNotFound, "extract", "launch", "ffmpeg", nil), services.KindToolNotFound},
		{"tool failure", services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "exit 1", nil), services.KindExternalToolFailure},
		{"no audio", services.Wrap(services.ErrNoAudioTrack, "probe", "", "", nil), services.KindNoAudioTrack},
		{"ml", services.Wrap(services.ErrMLUnavailable, "remove_silence", "vad", "", nil), services.KindMLUnavailable},
		{"deadline", fmt.Errorf("stage: %w", context.DeadlineExceeded), services.KindTimeout},
		{"canceled", context.Canceled, services.KindCanceled},
		{"other", errors.New("???"), services.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
