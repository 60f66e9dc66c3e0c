// Package engine sequences the export pipeline: feature gem, toolchain, code,
// assets, bundles, layouts and archives, with a cleanup phase that always runs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	pcontext "github.com/o3de-mps/mpsexport/pkg/context"
	"github.com/o3de-mps/mpsexport/pkg/interfaces"
	"github.com/o3de-mps/mpsexport/pkg/logger"
	"github.com/o3de-mps/mpsexport/pkg/manifest"
	"github.com/o3de-mps/mpsexport/pkg/process"
	"github.com/o3de-mps/mpsexport/pkg/state"
	"github.com/o3de-mps/mpsexport/pkg/types"
	"github.com/o3de-mps/mpsexport/pkg/validation"
)

// FeatureGem is toggled to match ExportConfig.EnableGameLift for the
// duration of an export.
const FeatureGem = "MPSGameLift"

// Exporter runs export pipelines. One Exporter may run several exports, but
// not concurrently on the same project.
type Exporter struct {
	logger logger.Logger
	deps   interfaces.ExportDependencies
	goos   string
}

// New creates an Exporter. All dependencies except the notifier are required.
func New(log logger.Logger, deps interfaces.ExportDependencies) (*Exporter, error) {
	var missing []string
	if deps.Runner == nil {
		missing = append(missing, "Runner")
	}
	if deps.Killer == nil {
		missing = append(missing, "Killer")
	}
	if deps.Manifest == nil {
		missing = append(missing, "Manifest")
	}
	if deps.Gems == nil {
		missing = append(missing, "Gems")
	}
	if deps.Tools == nil {
		missing = append(missing, "Tools")
	}
	if deps.Archiver == nil {
		missing = append(missing, "Archiver")
	}
	if deps.Settler == nil {
		missing = append(missing, "Settler")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing export dependencies: %s", strings.Join(missing, ", "))
	}

	return &Exporter{
		logger: logger.OrNop(log),
		deps:   deps,
		goos:   runtime.GOOS,
	}, nil
}

// buildPaths are the directories an export builds into
type buildPaths struct {
	source   string
	tools    string
	game     string
	bundling string
}

// run is the state of a single Export call
type run struct {
	cfg     types.ExportConfig
	project *manifest.Project
	paths   buildPaths
	seeds   []string
	tools   interfaces.ToolResolver
	bundles []string
	layouts []string
	ledger  *state.Ledger
	report  *state.RunReport
	log     logger.Logger
}

type stage struct {
	name string
	fn   func(ctx context.Context, r *run) error
}

// Export runs the pipeline described by cfg. Whatever happens, changes the
// run made to the project are reverted before Export returns, and the error
// returned is the one that stopped the pipeline.
func (e *Exporter) Export(ctx context.Context, cfg *types.ExportConfig) (err error) {
	if cfg == nil {
		return preconditionError(StageInit, errors.New("export configuration is required"))
	}

	ctx = pcontext.WithProject(pcontext.EnrichContext(ctx), filepath.Base(cfg.ProjectPath))
	r := &run{
		cfg:    *cfg,
		ledger: state.NewLedger(),
		report: state.NewRunReport(pcontext.GetRunID(ctx), filepath.Base(cfg.ProjectPath)),
		log:    logger.WithContext(ctx, e.logger),
	}

	current := StageInit
	defer func() {
		if rec := recover(); rec != nil {
			err = unexpectedError(current, fmt.Errorf("panic: %v", rec))
		}
		e.finish(ctx, r, current, err)
	}()

	if e.deps.Notifier != nil {
		e.deps.Notifier.NotifyExportStart(r.report.ProjectName)
	}

	stages := []stage{
		{StageInit, e.initialize},
		{StageGem, e.toggleFeatureGem},
		{StageToolchain, e.prepareToolchain},
		{StageCode, e.buildCode},
		{StageAssets, e.buildAssets},
		{StageBundle, e.bundleAssets},
		{StageLayout, e.assembleLayouts},
		{StageArchive, e.archiveLayouts},
	}

	for _, s := range stages {
		current = s.name
		if ctxErr := ctx.Err(); ctxErr != nil {
			return unexpectedError(s.name, fmt.Errorf("export interrupted: %w", ctxErr))
		}
		stageCtx := pcontext.WithStage(ctx, s.name)
		if err := s.fn(stageCtx, r); err != nil {
			return classify(s.name, err)
		}
		r.report.StageDone(s.name)
	}

	current = StageCleanup
	return nil
}

// finish runs the cleanup phase, records the outcome and notifies. It must
// run exactly once per Export call.
func (e *Exporter) finish(ctx context.Context, r *run, lastStage string, err error) {
	cleanupCtx := pcontext.WithStage(context.WithoutCancel(ctx), StageCleanup)
	cleanupLog := logger.WithContext(cleanupCtx, e.logger).WithStage(StageCleanup)
	if failed := r.ledger.RevertAll(cleanupCtx, cleanupLog); failed > 0 {
		cleanupLog.Warn(fmt.Sprintf("%d cleanup action(s) failed; the project may need manual repair", failed))
	}

	r.report.Layouts = r.layouts
	r.report.Finish(lastStage, err)
	if r.cfg.OutputPath != "" {
		if saveErr := state.SaveReport(r.cfg.OutputPath, r.report); saveErr != nil {
			r.log.Warn("Unable to save run report", logger.WithField("error", saveErr))
		}
	}

	if err != nil {
		r.log.Error(fmt.Sprintf("Export of %s failed: %v", r.report.ProjectName, err))
		if e.deps.Notifier != nil {
			e.deps.Notifier.NotifyExportFailure(r.report.ProjectName, err)
		}
		return
	}

	r.log.Success(fmt.Sprintf("Export of %s finished in %s: %s", r.report.ProjectName,
		r.report.Duration.Round(time.Millisecond), r.cfg.OutputPath))
	if e.deps.Notifier != nil {
		e.deps.Notifier.NotifyExportSuccess(r.report.ProjectName, r.cfg.OutputPath, r.report.Duration)
	}
}

// initialize validates the configuration, reads the project and checks
// every required input before anything is spawned.
func (e *Exporter) initialize(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageInit)

	result := validation.NewExportValidator().Validate(&r.cfg)
	for _, w := range result.Warnings() {
		log.Warn(w.Error())
	}
	if err := result.Err(); err != nil {
		return preconditionError(StageInit, err)
	}

	project, err := e.deps.Manifest.ReadProject(r.cfg.ProjectPath)
	if err != nil {
		return preconditionError(StageInit, err)
	}
	r.project = project
	r.report.ProjectName = project.Name

	r.paths = resolveBuildPaths(&r.cfg)
	r.tools = e.deps.Tools(r.paths.tools)

	r.seeds = seedListPaths(r.cfg.ProjectPath, r.cfg.BuildConfig)
	if missing := validation.MissingFiles(r.seeds); len(missing) > 0 {
		return preconditionError(StageInit, fmt.Errorf("missing seed list(s): %s", strings.Join(missing, ", ")))
	}

	log.Info(fmt.Sprintf("Exporting %s for %s (%s, launchers: %s)",
		project.Name, r.cfg.Platform, r.cfg.BuildConfig, r.cfg.Launchers()))

	// Running launchers lock the binaries we are about to rebuild.
	if !e.deps.Killer.KillByName(ctx, types.LauncherAll.TargetNames(project.Name)...) {
		log.Warn("Some running launchers could not be terminated; the build may fail on locked files")
	}
	return nil
}

func (e *Exporter) toggleFeatureGem(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageGem)
	projectPath := r.cfg.ProjectPath
	hasGem := r.project.HasGem(FeatureGem)

	switch {
	case r.cfg.EnableGameLift && !hasGem:
		if err := e.deps.Gems.EnableGem(ctx, projectPath, FeatureGem); err != nil {
			return toolError(StageGem, fmt.Errorf("unable to enable the %s gem: %w", FeatureGem, err))
		}
		return r.ledger.Record("disable "+FeatureGem, func(ctx context.Context) error {
			if err := e.deps.Gems.DisableGem(ctx, projectPath, FeatureGem); err != nil {
				return fmt.Errorf("%w: unable to remove the project's %s gem: %v", ErrCleanup, FeatureGem, err)
			}
			return nil
		})
	case !r.cfg.EnableGameLift && hasGem:
		if err := e.deps.Gems.DisableGem(ctx, projectPath, FeatureGem); err != nil {
			return toolError(StageGem, fmt.Errorf("unable to disable the %s gem: %w", FeatureGem, err))
		}
		return r.ledger.Record("enable "+FeatureGem, func(ctx context.Context) error {
			if err := e.deps.Gems.EnableGem(ctx, projectPath, FeatureGem); err != nil {
				return fmt.Errorf("%w: unable to restore the project's %s gem: %v", ErrCleanup, FeatureGem, err)
			}
			return nil
		})
	}

	log.Debug(fmt.Sprintf("%s gem already matches the requested state", FeatureGem))
	return nil
}

// runCommand runs args and returns the result. Only failures to run the
// command at all are errors here; callers decide what an exit code means.
func (e *Exporter) runCommand(ctx context.Context, stageName string, log logger.Logger, timeout time.Duration, args []string, dir string) (*process.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := e.deps.Runner.Run(ctx, process.NewCommand(args, dir, nil, log))
	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, process.ErrEmptyCommand):
		return res, preconditionError(stageName, err)
	case errors.Is(err, process.ErrTerminated):
		return res, toolError(stageName, err)
	default:
		return res, unexpectedError(stageName, fmt.Errorf("running %s: %w", strings.Join(args, " "), err))
	}
}

// mustRun is runCommand with any non-zero exit treated as a tool failure.
func (e *Exporter) mustRun(ctx context.Context, stageName string, log logger.Logger, timeout time.Duration, args []string, dir string) error {
	res, err := e.runCommand(ctx, stageName, log, timeout, args, dir)
	if err != nil {
		return err
	}
	if !res.Success() {
		return toolError(stageName, process.NewToolError(process.NewCommand(args, dir, nil, nil), res))
	}
	return nil
}
