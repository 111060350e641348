package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrNoAudioTrack  = errors.New("no audio track")
	ErrMLUnavailable = errors.New("speech detection unavailable")
	ErrTimeout       = errors.New("timeout")
	ErrCanceled      = errors.New("canceled")
	ErrCleanup       = errors.New("temp cleanup failure")
)

// Kind names a failure class for summaries and structured logs.
type Kind string

const (
	KindToolNotFound        Kind = "ToolNotFound"
	KindExternalToolFailure Kind = "ExternalToolFailure"
	KindInvalidConfig       Kind = "InvalidConfig"
	KindNoAudioTrack        Kind = "NoAudioTrack"
	KindMLUnavailable       Kind = "MLUnavailable"
	KindTimeout             Kind = "Timeout"
	KindCanceled            Kind = "Canceled"
	KindTempCleanupFailure  Kind = "TempCleanupFailure"
	KindUnknown             Kind = "Unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to its failure class. Nil errors yield an empty Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindInvalidConfig
	case errors.Is(err, ErrToolNotFound):
		return KindToolNotFound
	case errors.Is(err, ErrNoAudioTrack):
		return KindNoAudioTrack
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrMLUnavailable):
		return KindMLUnavailable
	case errors.Is(err, ErrCleanup):
		return KindTempCleanupFailure
	case errors.Is(err, ErrExternalTool):
		return KindExternalToolFailure
	default:
		return KindUnknown
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "conversion failure"
	}
	return strings.Join(parts, ": ")
}
