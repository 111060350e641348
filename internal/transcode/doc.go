// Package transcode turns a stage and a Job into an ffmpeg argument vector.
//
// Everything here is pure: no process is launched and no file is touched, so
// the pipeline and tests can inspect exactly what would be executed.
package transcode
