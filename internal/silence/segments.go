package silence

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Segment is a span of detected speech in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Expand pads every segment by buffer on both sides, clamps to [0, duration]
// and merges spans that overlap or touch. Empty or inverted spans are dropped.
// A non-positive duration disables the upper clamp.
func Expand(segments []Segment, buffer, duration float64) []Segment {
	if buffer < 0 {
		buffer = 0
	}
	padded := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if !finite(seg.Start) || !finite(seg.End) || seg.End <= seg.Start {
			continue
		}
		start := math.Max(0, seg.Start-buffer)
		end := seg.End + buffer
		if duration > 0 {
			end = math.Min(end, duration)
		}
		if end <= start {
			continue
		}
		padded = append(padded, Segment{Start: start, End: end})
	}
	sort.Slice(padded, func(i, j int) bool { return padded[i].Start < padded[j].Start })

	merged := make([]Segment, 0, len(padded))
	for _, seg := range padded {
		if n := len(merged); n > 0 && seg.Start <= merged[n-1].End {
			merged[n-1].End = math.Max(merged[n-1].End, seg.End)
			continue
		}
		merged = append(merged, seg)
	}
	return merged
}

// SelectFilter renders the ffmpeg expression that keeps only the given spans
// and rewrites timestamps so the output is contiguous.
func SelectFilter(segments []Segment) string {
	terms := make([]string, 0, len(segments))
	for _, seg := range segments {
		terms = append(terms, "between(t,"+formatSeconds(seg.Start)+","+formatSeconds(seg.End)+")")
	}
	return "aselect='" + strings.Join(terms, "+") + "',asetpts=N/SR/TB"
}

// formatSeconds rounds to milliseconds and drops trailing zeros.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
