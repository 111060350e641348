// Package config loads, normalizes, and validates vtoa configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Config covers everything the CLI needs;
// Job is the immutable per-run slice of it that the command builder and
// pipeline consume.
//
// Validation failures match services.ErrConfiguration so callers can abort a
// batch before any candidate runs.
package config
