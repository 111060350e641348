// Package services defines the shared failure taxonomy and context helpers
// used by every stage that talks to an external tool.
//
// Key responsibilities:
//   - Sentinel markers (tool missing, tool failure, invalid config, missing
//     audio track, speech detection unavailable) plus the Wrap helper that
//     attaches stage and operation detail while keeping errors.Is intact.
//   - Classify, which turns any wrapped error back into a stable Kind for the
//     batch summary and structured logs.
//   - Context helpers that stamp the candidate path, stage name, and run ID so
//     loggers can tag lines without threading extra parameters.
package services
