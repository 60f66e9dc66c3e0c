package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/o3de-mps/mpsexport/pkg/logger"
	"github.com/o3de-mps/mpsexport/pkg/toolchain"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

// Seed lists every export bundles from, relative to the project.
var requiredSeedLists = []string{
	"BasePopcornFxSeedList.seed",
	"GameSeedList.seed",
	"VFXSeedList.seed",
}

// profileSeedList is added for profile builds when the project still has it.
const profileSeedList = "ProfileOnlySeedList.seed"

func seedListDir(projectPath string) string {
	return filepath.Join(projectPath, "AssetBundling", "SeedLists")
}

func seedListPaths(projectPath string, config types.BuildConfig) []string {
	dir := seedListDir(projectPath)
	paths := make([]string, 0, len(requiredSeedLists)+1)
	for _, name := range requiredSeedLists {
		paths = append(paths, filepath.Join(dir, name))
	}
	if config == types.BuildConfigProfile {
		profile := filepath.Join(dir, profileSeedList)
		if info, err := os.Stat(profile); err == nil && info.Mode().IsRegular() {
			paths = append(paths, profile)
		}
	}
	return paths
}

// resolveBuildPaths fills in build directories the configuration left empty.
// They default to <engine|project>/build/{tools,game,asset_bundling}.
func resolveBuildPaths(cfg *types.ExportConfig) buildPaths {
	source := cfg.ProjectPath
	if cfg.EngineCentric {
		source = cfg.EnginePath
	}
	base := filepath.Join(source, "build")

	paths := buildPaths{
		source:   source,
		tools:    cfg.ToolsBuildPath,
		game:     cfg.GameBuildPath,
		bundling: cfg.AssetBundlingPath,
	}
	if paths.tools == "" {
		paths.tools = filepath.Join(base, "tools")
	}
	if paths.game == "" {
		paths.game = filepath.Join(base, "game")
	}
	if paths.bundling == "" {
		paths.bundling = filepath.Join(base, "asset_bundling")
	}
	return paths
}

// requiredTools lists the executables later stages will invoke.
func requiredTools(cfg *types.ExportConfig) []string {
	tools := []string{toolchain.AssetBundlerBatch}
	if cfg.BuildAssets {
		tools = append(tools, toolchain.AssetProcessorBatch)
	}
	return tools
}

func (e *Exporter) prepareToolchain(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageToolchain)

	if r.cfg.BuildTools {
		cm := toolchain.New(r.paths.source, r.paths.tools).
			DefineBool("LY_MONOLITHIC_GAME", false).
			Targets(toolchain.AssetProcessorBatch, toolchain.AssetBundlerBatch).
			Config(toolchain.ToolsConfig)
		if r.cfg.EngineCentric {
			cm.Define("LY_PROJECTS", r.cfg.ProjectPath)
		}

		log.Info(fmt.Sprintf("Building the export toolchain in %s", r.paths.tools))
		if err := e.mustRun(ctx, StageToolchain, log, r.cfg.StageTimeout, cm.ConfigureArgs(), ""); err != nil {
			return err
		}
		if err := e.mustRun(ctx, StageToolchain, log, r.cfg.StageTimeout, cm.BuildArgs(), ""); err != nil {
			return err
		}
	}

	if err := r.tools.Validate(requiredTools(&r.cfg)...); err != nil {
		if r.cfg.BuildTools {
			return toolError(StageToolchain, fmt.Errorf("toolchain build did not produce the expected tools: %w", err))
		}
		return preconditionError(StageToolchain, fmt.Errorf("toolchain not built (run with --build-tools): %w", err))
	}
	return nil
}

func (e *Exporter) buildCode(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageCode)

	launchers := r.cfg.Launchers()
	if launchers == types.LauncherNone {
		log.Info("No launchers requested; skipping the code build")
		return nil
	}

	e.checkExistingCache(r)

	cm := toolchain.New(r.paths.source, r.paths.game).
		DefineBool("LY_MONOLITHIC_GAME", r.cfg.Monolithic).
		DefineBool("ALLOW_SETTINGS_REGISTRY_DEVELOPMENT_OVERRIDES", r.cfg.AllowRegistryOverrides).
		Targets(launchers.TargetNames(r.project.Name)...).
		Config(string(r.cfg.BuildConfig))
	if r.cfg.EngineCentric {
		cm.Define("LY_PROJECTS", r.cfg.ProjectPath)
	}

	log.Info(fmt.Sprintf("Building %s launcher(s) in %s", launchers, r.paths.game))
	if err := e.mustRun(ctx, StageCode, log, r.cfg.StageTimeout, cm.ConfigureArgs(), ""); err != nil {
		return err
	}
	return e.mustRun(ctx, StageCode, log, r.cfg.StageTimeout, cm.BuildArgs(), "")
}

// checkExistingCache warns when the game build directory was configured
// with a different monolithic setting; CMake reconfigures it in place.
func (e *Exporter) checkExistingCache(r *run) {
	cache, err := toolchain.ReadCache(r.paths.game)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.log.Debug("Unable to read the existing CMake cache", logger.WithField("error", err))
		}
		return
	}
	if mono, ok := cache.Monolithic(); ok && mono != r.cfg.Monolithic {
		r.log.Warn(fmt.Sprintf("%s was configured with LY_MONOLITHIC_GAME=%t; reconfiguring with %t",
			r.paths.game, mono, r.cfg.Monolithic))
	}
}

func (e *Exporter) buildAssets(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageAssets)
	if !r.cfg.BuildAssets {
		log.Debug("Asset processing not requested")
		return nil
	}

	processor, err := r.tools.Resolve(toolchain.AssetProcessorBatch)
	if err != nil {
		return preconditionError(StageAssets, err)
	}
	log.Info(fmt.Sprintf("Using '%s' to process the assets", processor))

	args := []string{processor, "--project-path", r.cfg.ProjectPath, "--platforms", string(r.cfg.Platform)}
	res, err := e.runCommand(ctx, StageAssets, log, r.cfg.StageTimeout, args, "")
	if err != nil {
		return err
	}
	if res.Success() {
		return nil
	}
	if r.cfg.FailOnAssetErrors {
		return toolError(StageAssets, fmt.Errorf("asset processing failed with exit code %d", res.ExitCode))
	}
	log.Warn(fmt.Sprintf("Asset processing finished with exit code %d; continuing with the assets that were processed", res.ExitCode))
	return nil
}

// bundlePaths returns the engine and game bundle files for platform.
func bundlePaths(bundlingDir string, platform types.Platform) (engine, game string) {
	dir := filepath.Join(bundlingDir, "Bundles")
	return filepath.Join(dir, fmt.Sprintf("engine_%s.pak", platform)),
		filepath.Join(dir, fmt.Sprintf("game_%s.pak", platform))
}

func (e *Exporter) bundleAssets(ctx context.Context, r *run) error {
	log := r.log.WithStage(StageBundle)

	bundler, err := r.tools.Resolve(toolchain.AssetBundlerBatch)
	if err != nil {
		return preconditionError(StageBundle, err)
	}
	log.Info(fmt.Sprintf("Using '%s' to bundle the assets", bundler))

	platform := string(r.cfg.Platform)
	listDir := filepath.Join(r.paths.bundling, "AssetLists")
	engineList := filepath.Join(listDir, fmt.Sprintf("engine_%s.assetlist", platform))
	gameList := filepath.Join(listDir, fmt.Sprintf("game_%s.assetlist", platform))
	enginePak, gamePak := bundlePaths(r.paths.bundling, r.cfg.Platform)

	for _, dir := range []string{listDir, filepath.Dir(enginePak)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return unexpectedError(StageBundle, err)
		}
	}

	gameListArgs := []string{bundler, "assetLists",
		"--assetListFile", gameList,
		"--platform", platform,
		"--project-path", r.cfg.ProjectPath,
		"--allowOverwrites"}
	for _, seed := range r.seeds {
		gameListArgs = append(gameListArgs, "--seedListFile", seed)
	}

	steps := [][]string{
		{bundler, "assetLists",
			"--addDefaultSeedListFiles",
			"--assetListFile", engineList,
			"--platform", platform,
			"--project-path", r.cfg.ProjectPath,
			"--allowOverwrites"},
		gameListArgs,
		bundleArgs(bundler, engineList, enginePak, r),
		bundleArgs(bundler, gameList, gamePak, r),
	}
	for _, args := range steps {
		if err := e.mustRun(ctx, StageBundle, log, r.cfg.StageTimeout, args, ""); err != nil {
			return err
		}
	}

	for _, pak := range []string{enginePak, gamePak} {
		if err := e.deps.Settler.Wait(ctx, pak); err != nil {
			return toolError(StageBundle, fmt.Errorf("bundle %s was not written: %w", pak, err))
		}
	}
	r.bundles = []string{enginePak, gamePak}
	return nil
}

func bundleArgs(bundler, assetList, output string, r *run) []string {
	return []string{bundler, "bundles",
		"--maxSize", strconv.Itoa(r.cfg.MaxBundleSizeMB),
		"--platform", string(r.cfg.Platform),
		"--allowOverwrites",
		"--outputBundlePath", output,
		"--assetListFile", assetList,
		"--project-path", r.cfg.ProjectPath}
}
