package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/logger"
)

const (
	// DefaultCleanupTimeout bounds the wait after the final kill.
	DefaultCleanupTimeout = 30 * time.Second
	// DefaultFlushTimeout bounds how long output may stay open after the
	// process itself has exited.
	DefaultFlushTimeout = 5 * time.Second

	lineQueueSize = 256
)

// Runner spawns external commands and streams their stdout into a logger
// line by line while they run.
type Runner struct {
	Logger         logger.Logger
	CleanupTimeout time.Duration
	FlushTimeout   time.Duration
}

// NewRunner creates a Runner with the default timeouts.
func NewRunner(log logger.Logger) *Runner {
	return &Runner{
		Logger:         logger.OrNop(log),
		CleanupTimeout: DefaultCleanupTimeout,
		FlushTimeout:   DefaultFlushTimeout,
	}
}

// ProcessCommand runs args and returns the exit code. An empty argument list
// is logged and reported as exit code 1.
func ProcessCommand(ctx context.Context, log logger.Logger, args []string, cwd string, env map[string]string) (int, error) {
	res, err := NewRunner(log).Run(ctx, NewCommand(args, cwd, env, nil))
	if errors.Is(err, ErrEmptyCommand) {
		return 1, nil
	}
	if res == nil {
		return -1, err
	}
	return res.ExitCode, err
}

type execution struct {
	cmd     Command
	log     logger.Logger
	tracked *Tracked

	stdoutR *os.File
	stderrR *os.File

	lines      chan string
	stderr     bytes.Buffer
	stderrDone chan struct{}
}

// Run executes cmd to completion. Every stdout line is logged at info level
// as it arrives. Captured stderr is logged once at the end: at error level
// when the exit code is non-zero, otherwise as a warning. The process is
// always killed and reaped before Run returns, whatever happened.
//
// A non-zero exit code is not an error; callers decide what it means. When
// ctx ends first the process is killed and the error wraps ErrTerminated.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	log := cmd.Logger
	if log == nil {
		log = r.Logger
	}
	log = logger.OrNop(log)

	if len(cmd.Args) == 0 {
		log.Error(ErrEmptyCommand.Error())
		return &Result{ExitCode: 1}, ErrEmptyCommand
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	c := exec.Command(cmd.Args[0], cmd.Args[1:]...)
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stdout = stdoutW
	c.Stderr = stderrW
	isolate(c)

	start := time.Now()
	if err := c.Start(); err != nil {
		closeAll(stdoutR, stdoutW, stderrR, stderrW)
		log.Error(fmt.Sprintf("Failed to start process '%s'", cmd.Program()),
			logger.WithField("args", cmd.String()),
			logger.WithField("error", err))
		return nil, fmt.Errorf("starting %s: %w", cmd.Program(), err)
	}
	// The child holds its own copies; ours must go so EOF arrives on exit.
	closeAll(stdoutW, stderrW)

	log.Info(fmt.Sprintf("Running process '%s' with PID(%d): %s", cmd.Program(), c.Process.Pid, cmd.String()))

	ex := &execution{
		cmd:        cmd,
		log:        log,
		tracked:    trackTree(c.Process, cmd.Program()),
		stdoutR:    stdoutR,
		stderrR:    stderrR,
		lines:      make(chan string, lineQueueSize),
		stderrDone: make(chan struct{}),
	}
	res, err := ex.run(ctx, r.flushTimeout(), r.cleanupTimeout())
	res.Duration = time.Since(start)
	return res, err
}

func (r *Runner) flushTimeout() time.Duration {
	if r.FlushTimeout > 0 {
		return r.FlushTimeout
	}
	return DefaultFlushTimeout
}

func (r *Runner) cleanupTimeout() time.Duration {
	if r.CleanupTimeout > 0 {
		return r.CleanupTimeout
	}
	return DefaultCleanupTimeout
}

func (ex *execution) run(ctx context.Context, flushTimeout, cleanupTimeout time.Duration) (*Result, error) {
	group, gctx := NewSafeGroup(ctx, ex.log)
	group.Go(ex.readStdout)
	group.Go(ex.readStderr)
	group.Go(ex.tracked.wait)

	res := &Result{PID: ex.tracked.Pid()}
	emit := func(line string) {
		res.StdoutLines = append(res.StdoutLines, line)
		ex.log.Info(line)
	}

	var terminated error
	lines := ex.lines
	cancelled := gctx.Done()
waitLoop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			emit(line)
		case <-ex.tracked.Done():
			break waitLoop
		case <-cancelled:
			cancelled = nil
			terminated = context.Cause(gctx)
			ex.log.Warn(fmt.Sprintf("Terminating process '%s' with PID(%d)", ex.cmd.Program(), res.PID),
				logger.WithField("reason", terminated))
			if err := ex.tracked.Kill(); err != nil {
				ex.log.Error("Unexpected error while terminating process", logger.WithField("error", err))
			}
		}
	}

	// Final flush: whatever is still buffered in the pipes is drained before
	// the exit code is reported. A grandchild that inherited the pipe can keep
	// it open forever, so the read side is cut after flushTimeout.
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), flushTimeout)
	defer cancelFlush()
	for lines != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				break
			}
			emit(line)
		case <-flushCtx.Done():
			ex.log.Warn("Output still open after process exit; closing it")
			_ = ex.stdoutR.Close()
			for line := range lines {
				emit(line)
			}
			lines = nil
		}
	}
	select {
	case <-ex.stderrDone:
	case <-flushCtx.Done():
		_ = ex.stderrR.Close()
		<-ex.stderrDone
	}

	SafeKill(ex.log, cleanupTimeout, ex.tracked)
	groupErr := group.Wait()
	closeAll(ex.stdoutR, ex.stderrR)

	res.ExitCode = ex.tracked.ExitCode()
	ex.logStderr(res)

	if terminated != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrTerminated, ex.cmd.Program(), terminated)
	}
	if groupErr != nil {
		ex.log.Error("Unexpected error while running process",
			logger.WithField("args", ex.cmd.String()),
			logger.WithField("error", groupErr))
		return res, fmt.Errorf("running %s: %w", ex.cmd.Program(), groupErr)
	}
	return res, nil
}

func (ex *execution) readStdout() error {
	defer close(ex.lines)
	reader := bufio.NewReader(ex.stdoutR)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			ex.lines <- decodeLine(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading stdout: %w", err)
		}
	}
}

// readStderr drains stderr concurrently with stdout so a chatty tool can
// never fill the pipe and stall.
func (ex *execution) readStderr() error {
	defer close(ex.stderrDone)
	_, err := io.Copy(&ex.stderr, ex.stderrR)
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("reading stderr: %w", err)
	}
	return nil
}

func (ex *execution) logStderr(res *Result) {
	text := strings.ToValidUTF8(ex.stderr.String(), "\uFFFD")
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		res.StderrLines = append(res.StderrLines, strings.TrimSuffix(line, "\r"))
	}
	if res.ExitCode != 0 {
		ex.log.Error(text)
	} else {
		ex.log.Warn(text)
	}
}

func decodeLine(line string) string {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return strings.ToValidUTF8(line, "\uFFFD")
}

// mergeEnv overlays overrides on the inherited environment. A nil result
// makes exec inherit the environment untouched.
func mergeEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := os.Environ()
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
