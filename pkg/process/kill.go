package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/logger"
)

// Tracked is a started process whose exit is observed by a single waiter.
type Tracked struct {
	name  string
	proc  *os.Process
	tree  bool
	done  chan struct{}
	state *os.ProcessState
	err   error
}

// Track starts observing proc. Nothing else may call proc.Wait afterwards.
func Track(proc *os.Process, name string) *Tracked {
	t := newTracked(proc, name)
	go func() { _ = t.wait() }()
	return t
}

func newTracked(proc *os.Process, name string) *Tracked {
	return &Tracked{name: name, proc: proc, done: make(chan struct{})}
}

// trackTree is newTracked for a process started by isolate; Kill then
// takes down everything it spawned.
func trackTree(proc *os.Process, name string) *Tracked {
	t := newTracked(proc, name)
	t.tree = true
	return t
}

func (t *Tracked) wait() error {
	t.state, t.err = t.proc.Wait()
	close(t.done)
	if t.err != nil {
		return fmt.Errorf("waiting for %s: %w", t.name, t.err)
	}
	return nil
}

// Pid returns the operating system process ID.
func (t *Tracked) Pid() int {
	return t.proc.Pid
}

func (t *Tracked) exited() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed once the process has been reaped.
func (t *Tracked) Done() <-chan struct{} {
	return t.done
}

// ExitCode returns the exit code, or -1 while the process is still running
// or when it was ended by a signal.
func (t *Tracked) ExitCode() int {
	select {
	case <-t.done:
	default:
		return -1
	}
	if t.state == nil {
		return -1
	}
	return t.state.ExitCode()
}

// Kill sends a kill signal, to the whole process tree when the process was
// started in its own group. Killing a process that already exited is not an error.
func (t *Tracked) Kill() error {
	if t.tree {
		if err := killTree(t.proc, t.exited()); err != nil {
			return err
		}
	}
	if err := t.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// SafeKill kills every process and waits up to timeout for all of them to be
// reaped. It never panics and reports whether every process is confirmed gone.
func SafeKill(log logger.Logger, timeout time.Duration, procs ...*Tracked) (ok bool) {
	log = logger.OrNop(log)
	ok = true
	defer func() {
		if r := recover(); r != nil {
			log.Error("Unexpected panic ignored while terminating processes", logger.WithField("panic", r))
			ok = false
		}
	}()

	for _, p := range procs {
		if p == nil {
			continue
		}
		log.Debug(fmt.Sprintf("Terminating process '%s' with PID(%d)", p.name, p.Pid()))
		if err := p.Kill(); err != nil {
			log.Error("Unexpected error ignored while terminating process",
				logger.WithField("pid", p.Pid()),
				logger.WithField("error", err))
			ok = false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for _, p := range procs {
		if p == nil {
			continue
		}
		select {
		case <-p.Done():
			log.Debug(fmt.Sprintf("Process '%s' with PID(%d) terminated with exit code %d", p.name, p.Pid(), p.ExitCode()))
		case <-timer.C:
			log.Error(fmt.Sprintf("Timed out after %s waiting for process '%s' with PID(%d) to terminate", timeout, p.name, p.Pid()))
			return false
		}
	}
	return ok
}

// KillByName terminates every running process whose name matches one of
// names. It is best effort: failures are logged and reported as false.
func (r *Runner) KillByName(ctx context.Context, names ...string) bool {
	log := logger.OrNop(r.Logger)
	ok := true
	for _, name := range names {
		args := killArgs(runtime.GOOS, name)
		res, err := r.Run(ctx, NewCommand(args, "", nil, logger.Nop()))
		switch {
		case err != nil:
			log.Warn(fmt.Sprintf("Unable to terminate '%s'", name), logger.WithField("error", err))
			ok = false
		case res.ExitCode == 0:
			log.Info(fmt.Sprintf("Terminated running instances of '%s'", name))
		case res.ExitCode == noMatchExitCode(runtime.GOOS):
			log.Debug(fmt.Sprintf("No running instances of '%s'", name))
		default:
			log.Warn(fmt.Sprintf("Terminating '%s' exited with code %d", name, res.ExitCode))
			ok = false
		}
	}
	return ok
}

func killArgs(goos, name string) []string {
	if goos == "windows" {
		return []string{"taskkill", "/F", "/IM", name + ".exe"}
	}
	return []string{"pkill", "-f", commandPattern(name)}
}

// commandPattern matches command lines whose executable is name, with or
// without a directory, and nothing that merely mentions it in an argument.
func commandPattern(name string) string {
	return "^([^ ]*/)?" + regexp.QuoteMeta(name) + "( |$)"
}

// noMatchExitCode is what the kill tool returns when nothing matched.
func noMatchExitCode(goos string) int {
	if goos == "windows" {
		return 128
	}
	return 1
}
