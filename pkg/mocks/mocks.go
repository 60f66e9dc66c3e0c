// Package mocks provides mock implementations of the export collaborators
// for testing. Hand-written doubles live here; mockgen output lives in
// mock_interfaces.go.
package mocks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/interfaces"
	"github.com/o3de-mps/mpsexport/pkg/manifest"
	"github.com/o3de-mps/mpsexport/pkg/process"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

// RunFunc scripts the outcome of one command
type RunFunc func(cmd process.Command) (*process.Result, error)

// MockCommandRunner records every command and answers with a scripted
// result. Unscripted commands succeed with exit code 0.
type MockCommandRunner struct {
	mu       sync.Mutex
	commands []process.Command
	rules    []runRule
}

type runRule struct {
	match func(args []string) bool
	fn    RunFunc
}

// NewMockCommandRunner creates a runner on which every command succeeds
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{}
}

// Run records cmd and returns the first matching scripted result
func (m *MockCommandRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	rules := append([]runRule(nil), m.rules...)
	m.mu.Unlock()

	if len(cmd.Args) == 0 {
		return &process.Result{ExitCode: 1}, process.ErrEmptyCommand
	}
	if err := ctx.Err(); err != nil {
		return &process.Result{ExitCode: -1}, errors.Join(process.ErrTerminated, err)
	}
	for _, rule := range rules {
		if rule.match(cmd.Args) {
			return rule.fn(cmd)
		}
	}
	return &process.Result{ExitCode: 0}, nil
}

// On scripts fn for commands whose joined arguments contain substr.
// Earlier rules win.
func (m *MockCommandRunner) On(substr string, fn RunFunc) *MockCommandRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, runRule{
		match: func(args []string) bool { return strings.Contains(strings.Join(args, " "), substr) },
		fn:    fn,
	})
	return m
}

// FailOn makes commands containing substr exit with code and stderr
func (m *MockCommandRunner) FailOn(substr string, code int, stderr string) *MockCommandRunner {
	return m.On(substr, func(process.Command) (*process.Result, error) {
		res := &process.Result{ExitCode: code}
		if stderr != "" {
			res.StderrLines = []string{stderr}
		}
		return res, nil
	})
}

// WriteOutputOn creates the file following flag in the arguments of
// commands containing substr, as a tool writing its output would.
func (m *MockCommandRunner) WriteOutputOn(substr, flag string) *MockCommandRunner {
	return m.On(substr, func(cmd process.Command) (*process.Result, error) {
		for i, arg := range cmd.Args {
			if arg == flag && i+1 < len(cmd.Args) {
				out := cmd.Args[i+1]
				if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
					return nil, err
				}
				if err := os.WriteFile(out, []byte("PAK:"+filepath.Base(out)), 0644); err != nil {
					return nil, err
				}
			}
		}
		return &process.Result{ExitCode: 0}, nil
	})
}

// Commands returns the argument lists run so far, in order
func (m *MockCommandRunner) Commands() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, 0, len(m.commands))
	for _, c := range m.commands {
		out = append(out, append([]string(nil), c.Args...))
	}
	return out
}

// CommandsContaining returns the commands whose joined arguments contain substr
func (m *MockCommandRunner) CommandsContaining(substr string) [][]string {
	var out [][]string
	for _, args := range m.Commands() {
		if strings.Contains(strings.Join(args, " "), substr) {
			out = append(out, args)
		}
	}
	return out
}

// MockProcessKiller records kill requests
type MockProcessKiller struct {
	mu     sync.Mutex
	names  []string
	result bool
}

// NewMockProcessKiller creates a killer that always succeeds
func NewMockProcessKiller() *MockProcessKiller {
	return &MockProcessKiller{result: true}
}

// KillByName records names
func (m *MockProcessKiller) KillByName(ctx context.Context, names ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, names...)
	return m.result
}

// SetResult sets what KillByName reports
func (m *MockProcessKiller) SetResult(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = ok
}

// Names returns every name passed to KillByName
func (m *MockProcessKiller) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.names...)
}

// MockManifestReader serves a fixed project
type MockManifestReader struct {
	Project *manifest.Project
	Err     error
}

// ReadProject returns a copy of the configured project
func (m *MockManifestReader) ReadProject(projectPath string) (*manifest.Project, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p := *m.Project
	p.Path = projectPath
	p.Gems = append([]manifest.GemRef(nil), m.Project.Gems...)
	return &p, nil
}

// MockArchiver records archive requests
type MockArchiver struct {
	mu       sync.Mutex
	requests []string
	err      error
}

// NewMockArchiver creates a new mock archiver
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{}
}

// Archive records srcDir and returns <srcDir><ext> or the configured error
func (m *MockArchiver) Archive(ctx context.Context, srcDir string, format types.ArchiveFormat) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, srcDir)
	if m.err != nil {
		return "", m.err
	}
	return srcDir + format.Extension(), nil
}

// SetError sets the error to return from Archive
func (m *MockArchiver) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns the directories passed to Archive
func (m *MockArchiver) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// MockSettleWaiter reports a file as settled as soon as it exists
type MockSettleWaiter struct {
	mu    sync.Mutex
	paths []string
}

// Wait returns os.ErrNotExist when path is missing
func (m *MockSettleWaiter) Wait(ctx context.Context, path string) error {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return err
	}
	return nil
}

// Paths returns the files waited on
func (m *MockSettleWaiter) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// MockNotifier records notifications
type MockNotifier struct {
	mu        sync.Mutex
	Started   []string
	Succeeded []string
	Failed    []error
}

// NotifyExportStart records project
func (m *MockNotifier) NotifyExportStart(project string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Started = append(m.Started, project)
}

// NotifyExportSuccess records the output path
func (m *MockNotifier) NotifyExportSuccess(project, outputPath string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Succeeded = append(m.Succeeded, outputPath)
}

// NotifyExportFailure records err
func (m *MockNotifier) NotifyExportFailure(project string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed = append(m.Failed, err)
}

// Compile-time interface checks
var (
	_ interfaces.CommandRunner  = (*MockCommandRunner)(nil)
	_ interfaces.ProcessKiller  = (*MockProcessKiller)(nil)
	_ interfaces.ManifestReader = (*MockManifestReader)(nil)
	_ interfaces.Archiver       = (*MockArchiver)(nil)
	_ interfaces.SettleWaiter   = (*MockSettleWaiter)(nil)
	_ interfaces.ExportNotifier = (*MockNotifier)(nil)
)
