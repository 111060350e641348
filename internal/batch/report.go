package batch

import (
	"time"

	"vtoa/internal/pipeline"
)

// Report holds one outcome per candidate, in submission order.
type Report struct {
	Outcomes []pipeline.Outcome
	Duration time.Duration
}

// Total is the number of candidates submitted.
func (r Report) Total() int {
	return len(r.Outcomes)
}

// Succeeded counts converted candidates.
func (r Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

// Failed counts candidates that ran and failed.
func (r Report) Failed() int {
	return len(r.Failures())
}

// Skipped counts candidates never started because the batch was canceled.
func (r Report) Skipped() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped {
			n++
		}
	}
	return n
}

// FellBack counts successful candidates that needed the threshold fallback.
func (r Report) FellBack() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded && o.FellBack {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in candidate order.
func (r Report) Failures() []pipeline.Outcome {
	var failed []pipeline.Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}
