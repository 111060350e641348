package transcode

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vtoa/internal/config"
)

// Stage is one ffmpeg invocation in the conversion chain.
type Stage string

const (
	StageExtract       Stage = "extract"
	StageRemoveSilence Stage = "remove_silence"
	StageNormalize     Stage = "normalize"
)

// Label returns the human-readable stage name, e.g. "Remove Silence".
// Casers are stateful, so each call builds its own.
func (s Stage) Label() string {
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageExtract, StageRemoveSilence, StageNormalize:
		return true
	default:
		return false
	}
}

// Sequence returns the ordered stages a job runs. Extract always runs first;
// RemoveSilence precedes Normalize when both are enabled.
func Sequence(job config.Job) []Stage {
	stages := make([]Stage, 0, 3)
	stages = append(stages, StageExtract)
	if job.RemoveSilence {
		stages = append(stages, StageRemoveSilence)
	}
	if job.Normalize {
		stages = append(stages, StageNormalize)
	}
	return stages
}
