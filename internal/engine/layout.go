package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/o3de-mps/mpsexport/pkg/toolchain"
	"github.com/o3de-mps/mpsexport/pkg/types"
	"github.com/o3de-mps/mpsexport/pkg/utils"
)

// Launch configuration files each launcher reads from the package root.
var launcherProjectFiles = map[types.LauncherType][]string{
	types.LauncherGame:    {"launch_client.cfg"},
	types.LauncherServer:  {"launch_server.cfg"},
	types.LauncherUnified: {"launch_client.cfg", "launch_server.cfg"},
}

// ExportLayouts returns one layout per requested launcher, in canonical
// order. Each layout leaves out the executables of the other launchers.
func ExportLayouts(cfg *types.ExportConfig, projectName, goos string) []types.ExportLayout {
	ext := toolchain.ExeExt(goos)
	var layouts []types.ExportLayout
	for _, flag := range cfg.Launchers().Flags() {
		var ignore []string
		for _, other := range types.LauncherAll.Flags() {
			if other != flag {
				ignore = append(ignore, fmt.Sprintf("*.%sLauncher%s", other.Kinds()[0], ext))
			}
		}
		layouts = append(layouts, types.ExportLayout{
			Launcher:            flag,
			OutputPath:          filepath.Join(cfg.OutputPath, fmt.Sprintf("%s%sPackage", projectName, flag.Kinds()[0])),
			ProjectFilePatterns: append([]string(nil), launcherProjectFiles[flag]...),
			IgnoreFilePatterns:  ignore,
		})
	}
	return layouts
}

// launcherBinDir is where the code build places launchers and their modules.
func launcherBinDir(gameBuildDir string, config types.BuildConfig) string {
	return filepath.Join(gameBuildDir, "bin", string(config))
}

func (e *Exporter) assembleLayouts(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageLayout)

	layouts := ExportLayouts(&r.cfg, r.project.Name, e.goos)
	if len(layouts) == 0 {
		log.Info("No launchers requested; no layouts to assemble")
		return nil
	}

	binDir := launcherBinDir(r.paths.game, r.cfg.BuildConfig)
	if !utils.IsDirectory(binDir) {
		return preconditionError(StageLayout, fmt.Errorf("launcher build output %s does not exist", binDir))
	}

	for _, layout := range layouts {
		if err := ctx.Err(); err != nil {
			return unexpectedError(StageLayout, err)
		}
		if err := e.assembleLayout(r, layout, binDir); err != nil {
			return unexpectedError(StageLayout, fmt.Errorf("assembling %s: %w", layout.OutputPath, err))
		}
		r.layouts = append(r.layouts, layout.OutputPath)
		log.Info(fmt.Sprintf("Assembled %s", layout.OutputPath))
	}
	return nil
}

// assembleLayout recreates layout.OutputPath from the launcher build output,
// the project's launch files and the bundles. Exclusions apply to all three.
func (e *Exporter) assembleLayout(r *run, layout types.ExportLayout, binDir string) error {
	exclude, err := utils.NewExclusionMatcher(layout.IgnoreFilePatterns)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(layout.OutputPath); err != nil {
		return err
	}
	if err := os.MkdirAll(layout.OutputPath, 0755); err != nil {
		return err
	}

	copied, err := utils.CopyTree(binDir, layout.OutputPath, utils.CopyOptions{Exclude: exclude})
	if err != nil {
		return err
	}
	r.log.Debug(fmt.Sprintf("Copied %d build file(s) into %s", len(copied), layout.OutputPath))

	projectFiles, err := utils.GlobFiles(r.cfg.ProjectPath, layout.ProjectFilePatterns)
	if err != nil {
		return err
	}
	for _, file := range projectFiles {
		if exclude.IsExcluded(filepath.Base(file)) {
			continue
		}
		if _, err := utils.CopyFileToDir(file, layout.OutputPath); err != nil {
			return err
		}
	}

	cacheDir := filepath.Join(layout.OutputPath, "Cache", string(r.cfg.Platform))
	for _, bundle := range r.bundles {
		if exclude.IsExcluded(filepath.Base(bundle)) {
			continue
		}
		if _, err := utils.CopyFileToDir(bundle, cacheDir); err != nil {
			return fmt.Errorf("copying bundle: %w", err)
		}
	}
	return nil
}

// archiveLayouts compresses every assembled layout. Failures are reported
// at error level but only stop the export under StrictArchive.
func (e *Exporter) archiveLayouts(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageArchive)
	if !r.cfg.ArchiveFormat.Enabled() {
		return nil
	}

	for _, dir := range r.layouts {
		archivePath, err := e.deps.Archiver.Archive(ctx, dir, r.cfg.ArchiveFormat)
		if err != nil {
			if r.cfg.StrictArchive {
				return unexpectedError(StageArchive, fmt.Errorf("archiving %s: %w", dir, err))
			}
			log.Error(fmt.Sprintf("Unable to archive %s: %v", dir, err))
			continue
		}
		r.report.Archives = append(r.report.Archives, archivePath)
		log.Info(fmt.Sprintf("Archived %s to %s", dir, archivePath))
	}
	return nil
}
