// Package pipeline converts one candidate file through the enabled stages.
//
// Extract always runs; RemoveSilence and Normalize follow when enabled. A
// single-stage job writes straight to the final path. Longer chains write
// hidden temp artifacts beside the source and move the last one into place,
// so a failed candidate leaves nothing new behind.
package pipeline
