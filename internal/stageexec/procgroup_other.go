//go:build !unix

package stageexec

import "os/exec"

func isolate(*exec.Cmd) {}
