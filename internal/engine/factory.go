package engine

import (
	"github.com/o3de-mps/mpsexport/pkg/archive"
	"github.com/o3de-mps/mpsexport/pkg/gems"
	"github.com/o3de-mps/mpsexport/pkg/interfaces"
	"github.com/o3de-mps/mpsexport/pkg/logger"
	"github.com/o3de-mps/mpsexport/pkg/manifest"
	"github.com/o3de-mps/mpsexport/pkg/notifier"
	"github.com/o3de-mps/mpsexport/pkg/process"
	"github.com/o3de-mps/mpsexport/pkg/settle"
	"github.com/o3de-mps/mpsexport/pkg/toolchain"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

// DependencyFactory creates default implementations of dependencies.
// This keeps concrete fallbacks out of the Exporter constructor.
type DependencyFactory struct {
	logger logger.Logger
	config *types.ExportConfig
}

// NewDependencyFactory creates a new dependency factory. config may be nil
// when only defaults are wanted.
func NewDependencyFactory(log logger.Logger, config *types.ExportConfig) *DependencyFactory {
	return &DependencyFactory{
		logger: logger.OrNop(log),
		config: config,
	}
}

// CreateDefaults creates all default dependencies for an export.
func (f *DependencyFactory) CreateDefaults() interfaces.ExportDependencies {
	runner := process.NewRunner(f.logger)
	deps := interfaces.ExportDependencies{
		Runner:   runner,
		Killer:   runner,
		Manifest: manifest.Reader{},
		Gems:     gems.NewToggler(f.logger),
		Tools:    newToolResolver,
		Archiver: archive.NewArchiver(f.logger),
		Settler:  settle.NewWaiter(f.logger),
	}

	if f.config != nil && f.config.Notify {
		deps.Notifier = notifier.New(notifier.Config{Enabled: true, Sound: true}, f.logger)
	}
	return deps
}

// CreateWithOverrides creates dependencies with specific overrides.
// Non-nil values in overrides replace the defaults.
func (f *DependencyFactory) CreateWithOverrides(overrides interfaces.ExportDependencies) interfaces.ExportDependencies {
	deps := f.CreateDefaults()

	if overrides.Runner != nil {
		deps.Runner = overrides.Runner
	}
	if overrides.Killer != nil {
		deps.Killer = overrides.Killer
	}
	if overrides.Manifest != nil {
		deps.Manifest = overrides.Manifest
	}
	if overrides.Gems != nil {
		deps.Gems = overrides.Gems
	}
	if overrides.Tools != nil {
		deps.Tools = overrides.Tools
	}
	if overrides.Archiver != nil {
		deps.Archiver = overrides.Archiver
	}
	if overrides.Settler != nil {
		deps.Settler = overrides.Settler
	}
	if overrides.Notifier != nil {
		deps.Notifier = overrides.Notifier
	}

	return deps
}

func newToolResolver(buildDir string) interfaces.ToolResolver {
	return toolchain.NewResolver(buildDir)
}
