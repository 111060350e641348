// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: audio/video stream properties
//   - Format: container-level metadata
//
// Inspect runs ffprobe; Parse decodes captured output. Result helpers count
// audio streams, select the n-th audio stream, and resolve a duration.
package ffprobe
