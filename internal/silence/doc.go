// Package silence chooses how the silence removal stage decides what to cut.
//
// The threshold detector renders a fixed silenceremove filter. The ML detector
// decodes the stage input to mono WAV, asks an external voice-activity helper
// for speech spans, pads and merges them, and renders an aselect filter that
// keeps only those spans. Select probes the helper once per batch; Strategy
// falls back to the threshold detector at most once per file.
package silence
