// Package interfaces provides abstractions for dependency injection and testability
package interfaces

//go:generate mockgen -destination=../mocks/mock_interfaces.go -package=mocks github.com/o3de-mps/mpsexport/pkg/interfaces GemToggler,ToolResolver

import (
	"context"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/manifest"
	"github.com/o3de-mps/mpsexport/pkg/process"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

// CommandRunner executes one external command to completion
type CommandRunner interface {
	Run(ctx context.Context, cmd process.Command) (*process.Result, error)
}

// ProcessKiller terminates running processes by name. It never fails the
// caller; the result only reports whether every kill went through.
type ProcessKiller interface {
	KillByName(ctx context.Context, names ...string) bool
}

// ManifestReader loads project metadata
type ManifestReader interface {
	ReadProject(projectPath string) (*manifest.Project, error)
}

// GemToggler enables and disables gems in a project's manifest
type GemToggler interface {
	EnableGem(ctx context.Context, projectPath, gem string) error
	DisableGem(ctx context.Context, projectPath, gem string) error
}

// ToolResolver locates prebuilt toolchain executables
type ToolResolver interface {
	Resolve(tool string) (string, error)
	Validate(tools ...string) error
}

// ToolResolverFactory returns a resolver rooted at a tools build directory
type ToolResolverFactory func(buildDir string) ToolResolver

// Archiver compresses a directory next to itself
type Archiver interface {
	Archive(ctx context.Context, srcDir string, format types.ArchiveFormat) (string, error)
}

// SettleWaiter blocks until a file stops changing
type SettleWaiter interface {
	Wait(ctx context.Context, path string) error
}

// ExportNotifier reports export progress to the user
type ExportNotifier interface {
	NotifyExportStart(project string)
	NotifyExportSuccess(project, outputPath string, duration time.Duration)
	NotifyExportFailure(project string, err error)
}

// ExportDependencies holds all dependencies for the export pipeline.
// Notifier is optional; everything else is required.
type ExportDependencies struct {
	Runner   CommandRunner
	Killer   ProcessKiller
	Manifest ManifestReader
	Gems     GemToggler
	Tools    ToolResolverFactory
	Archiver Archiver
	Settler  SettleWaiter
	Notifier ExportNotifier
}
