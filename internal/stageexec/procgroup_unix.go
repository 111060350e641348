//go:build unix

package stageexec

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// isolate starts the tool in its own process group so a terminal Ctrl-C,
// which is delivered to the whole foreground group, reaches only vtoa. The
// stage timeout then kills the entire group, including any helpers.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
}
