//go:build !unix && !windows

package process

import (
	"os"
	"os/exec"
)

func isolate(c *exec.Cmd) {}

func killTree(proc *os.Process, exited bool) error {
	return nil
}
