// Package stageexec runs a single external tool invocation and classifies the
// result: a launch failure is ErrToolNotFound, a non-zero exit is a
// *ToolFailure carrying stderr verbatim, and a configured timeout is ErrTimeout.
package stageexec
