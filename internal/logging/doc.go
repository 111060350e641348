// Package logging assembles structured slog loggers and formatting helpers.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the candidate file, stage, and run ID automatically. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
