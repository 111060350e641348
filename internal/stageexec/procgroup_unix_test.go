//go:build unix

package stageexec

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestExecRunnerStartsToolInOwnProcessGroup(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	bin := writeScript(t, `echo $$ > "$1.tmp" && mv "$1.tmp" "$1"; sleep 0.3; echo finished >&2; exit 0`)

	type result struct {
		code   int
		stderr string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		code, stderr, err := ExecRunner{}.Run(context.Background(), bin, []string{pidFile})
		done <- result{code, stderr, err}
	}()

	var pid int
	deadline := time.Now().Add(3 * time.Second)
	for pid == 0 && time.Now().Before(deadline) {
		if data, err := os.ReadFile(pidFile); err == nil {
			pid, _ = strconv.Atoi(strings.TrimSpace(string(data)))
		}
		time.Sleep(10 * time.Millisecond)
	}
	if pid == 0 {
		t.Fatal("tool never reported its pid")
	}

	pgid, err := unix.Getpgid(pid)
	if err != nil {
		t.Fatalf("getpgid: %v", err)
	}
	if pgid == unix.Getpgrp() {
		t.Fatal("tool shares the caller's process group; a terminal Ctrl-C would reach it")
	}
	if pgid != pid {
		t.Fatalf("expected tool to lead its own group, pgid=%d pid=%d", pgid, pid)
	}

	r := <-done
	if r.err != nil || r.code != 0 || !strings.Contains(r.stderr, "finished") {
		t.Fatalf("stage should run to completion, got code=%d stderr=%q err=%v", r.code, r.stderr, r.err)
	}
}
