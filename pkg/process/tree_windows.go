//go:build windows

package process

import (
	"os"
	"os/exec"
	"strconv"
)

func isolate(c *exec.Cmd) {}

// killTree ends proc and every process it started. Once proc was reaped its
// PID may belong to someone else, so nothing is signalled.
func killTree(proc *os.Process, exited bool) error {
	if exited {
		return nil
	}
	// taskkill exits non-zero when the tree is already gone.
	_ = exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(proc.Pid)).Run()
	return nil
}
