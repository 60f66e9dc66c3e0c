// Package process runs external build tools: it spawns the process, streams
// its output into the log while it runs, and always reaps it before returning.
package process

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/logger"
)

var (
	// ErrEmptyCommand is returned when a command has no program to run.
	ErrEmptyCommand = errors.New("command must be supplied a non-empty list of arguments")

	// ErrTerminated is returned when a process was killed because its
	// context ended before it exited on its own.
	ErrTerminated = errors.New("process terminated before completion")
)

// Command is one external invocation. Treat it as immutable once built.
type Command struct {
	// Args holds the program path followed by its arguments.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env entries override the inherited environment.
	Env map[string]string
	// Logger receives the command's output; the runner's logger is used when nil.
	Logger logger.Logger
}

// NewCommand copies args so later changes by the caller cannot leak in.
func NewCommand(args []string, dir string, env map[string]string, log logger.Logger) Command {
	argsCopy := append([]string(nil), args...)
	var envCopy map[string]string
	if len(env) > 0 {
		envCopy = make(map[string]string, len(env))
		for k, v := range env {
			envCopy[k] = v
		}
	}
	return Command{Args: argsCopy, Dir: dir, Env: envCopy, Logger: log}
}

// Program returns the executable name, or "" for an empty command.
func (c Command) Program() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Result is what a finished command produced. ExitCode is only set after
// the process is gone and both output streams are drained.
type Result struct {
	ExitCode    int
	PID         int
	StdoutLines []string
	StderrLines []string
	Duration    time.Duration
}

// Stdout returns the captured standard output as a single string.
func (r *Result) Stdout() string {
	return strings.Join(r.StdoutLines, "\n")
}

// Stderr returns the captured standard error as a single string.
func (r *Result) Stderr() string {
	return strings.Join(r.StderrLines, "\n")
}

// Success reports a zero exit code.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// ToolError reports an external program that exited with a non-zero code.
type ToolError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

// NewToolError builds a ToolError from a command and its result.
func NewToolError(cmd Command, res *Result) *ToolError {
	e := &ToolError{Args: append([]string(nil), cmd.Args...), ExitCode: -1}
	if res != nil {
		e.ExitCode = res.ExitCode
		e.Stderr = res.Stderr()
	}
	return e
}

func (e *ToolError) Error() string {
	prog := "<empty>"
	if len(e.Args) > 0 {
		prog = e.Args[0]
	}
	msg := fmt.Sprintf("%s exited with code %d", prog, e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
