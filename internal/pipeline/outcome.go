package pipeline

import (
	"time"

	"vtoa/internal/services"
	"vtoa/internal/transcode"
)

// Outcome is the result of processing one candidate.
type Outcome struct {
	Source string
	// Output is the computed final path, set even when the candidate failed.
	Output    string
	Succeeded bool
	// Skipped marks candidates never started because the batch was canceled.
	Skipped bool
	// Stages lists the stages that completed, in order.
	Stages []transcode.Stage
	// Reasons holds human-readable failure reasons, e.g.
	// "Normalize failed: <stderr tail>".
	Reasons  []string
	Err      error
	FellBack bool
	Duration time.Duration
}

// Failed reports whether the candidate ran and did not succeed.
func (o Outcome) Failed() bool {
	return !o.Succeeded && !o.Skipped
}

// Reason returns the first failure reason, or "".
func (o Outcome) Reason() string {
	if len(o.Reasons) == 0 {
		return ""
	}
	return o.Reasons[0]
}

// Kind classifies the failure for summaries.
func (o Outcome) Kind() services.Kind {
	return services.Classify(o.Err)
}
