// Package main hosts the vtoa CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, applies
// per-run flag overrides, and hands the work to the internal packages:
// discovery, the per-candidate pipeline, and the batch runner. Commands here
// only wire collaborators together and render progress and summaries.
package main
