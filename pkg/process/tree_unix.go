//go:build unix

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// isolate starts the command in its own process group so the whole tree
// can be signalled at once.
func isolate(c *exec.Cmd) {
	if c.SysProcAttr == nil {
		c.SysProcAttr = &syscall.SysProcAttr{}
	}
	c.SysProcAttr.Setpgid = true
}

// killTree kills the process group led by proc. The group outlives its
// leader while any child is still running, and its ID is not reused until
// the last member is gone, so this is safe after the leader was reaped.
func killTree(proc *os.Process, _ bool) error {
	err := syscall.Kill(-proc.Pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) || errors.Is(err, syscall.EPERM) {
		return nil
	}
	return err
}
