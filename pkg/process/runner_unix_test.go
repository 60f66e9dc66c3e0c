//go:build unix

package process_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/process"
)

// processGone reports whether pid no longer runs. A zombie waiting for a
// reaper that never comes counts as gone.
func processGone(pid int) bool {
	if err := syscall.Kill(pid, 0); errors.Is(err, syscall.ESRCH) {
		return true
	}
	stat, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	// pid (comm) state ...
	s := string(stat)
	if i := strings.LastIndexByte(s, ')'); i >= 0 && i+2 < len(s) {
		return s[i+2] == 'Z'
	}
	return false
}

func waitGone(t *testing.T, pid int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if processGone(pid) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	_ = syscall.Kill(pid, syscall.SIGKILL)
	t.Errorf("child process %d still running after Run returned", pid)
}

func readPid(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("pid file not written: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("bad pid file %q: %v", data, err)
	}
	return pid
}

func TestRun_CancelKillsProcessTree(t *testing.T) {
	requireShell(t)
	pidFile := filepath.Join(t.TempDir(), "pid")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := newTestRunner(&bytes.Buffer{}).Run(ctx, process.Command{
		Args: sh(`sleep 30 & echo $! > "` + pidFile + `"; wait`),
	})
	if !errors.Is(err, process.ErrTerminated) {
		t.Fatalf("error = %v, want ErrTerminated", err)
	}
	waitGone(t, readPid(t, pidFile))
}

func TestRun_ExitReapsLeftoverChildren(t *testing.T) {
	requireShell(t)
	pidFile := filepath.Join(t.TempDir(), "pid")
	r := newTestRunner(&bytes.Buffer{})
	r.FlushTimeout = 300 * time.Millisecond

	res, err := r.Run(context.Background(), process.Command{
		Args: sh(`sleep 30 > /dev/null 2>&1 & echo $! > "` + pidFile + `"; echo done`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	waitGone(t, readPid(t, pidFile))
}
