package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/o3de-mps/mpsexport/internal/engine"
	"github.com/o3de-mps/mpsexport/pkg/config"
	"github.com/o3de-mps/mpsexport/pkg/process"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

func (c *CLI) newExportCmd() *cobra.Command {
	defaults := types.DefaultExportConfig()

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build and package the project into release layouts",
		Long: `Export builds the requested launchers, bundles the project's assets and
writes one <Project><Kind>Package directory per launcher into the output path.

Values come from the export profile (mps-export.yaml) when one exists; flags
and MPSEXPORT_* environment variables override it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd)
		},
	}

	flags := cmd.Flags()
	flags.SetNormalizeFunc(normalizeLegacyFlags)

	flags.String("output-path", "", "release directory the layouts are written to (required unless set in the profile)")
	flags.String("config", string(defaults.BuildConfig), "CMake configuration for project binaries (release, profile); tools always build as profile")
	flags.StringP("archive-output", "a", string(defaults.ArchiveFormat), "compress each layout: none, zip, gzip, bz2, xz")
	flags.Bool("game-lift", false, "enable the MPSGameLift gem for this export")
	flags.Bool("should-build-assets", false, "process all assets before bundling")
	flags.Bool("fail-on-asset-errors", false, "fail the export when asset processing reports errors")
	flags.Bool("build-tools", defaults.BuildTools, "build AssetProcessorBatch and AssetBundlerBatch first")
	flags.String("tools-build-path", "", "toolchain build directory (default <project>/build/tools)")
	flags.String("game-build-path", "", "launcher build directory (default <project>/build/game)")
	flags.Bool("allow-registry-overrides", false, "allow settings registry overrides from external sources")
	flags.String("asset-bundling-path", "", "asset list and bundle directory (default <project>/build/asset_bundling)")
	flags.Int("max-bundle-size", defaults.MaxBundleSizeMB, "maximum size of an asset bundle in MB")
	flags.Bool("no-game-launcher", false, "skip the Game launcher")
	flags.Bool("no-server-launcher", false, "skip the Server launcher")
	flags.Bool("no-unified-launcher", false, "skip the Unified launcher")
	flags.String("platform", string(defaults.Platform), "asset platform (pc, linux, mac)")
	flags.Bool("engine-centric", false, "build from the engine source tree with the project as an external project")
	flags.String("engine-path", "", "engine directory (required for --engine-centric)")
	flags.Bool("monolithic", defaults.Monolithic, "link launchers monolithically")
	flags.Bool("strict-archive", false, "fail the export when archiving fails")
	flags.Duration("stage-timeout", 0, "kill any single build tool running longer than this (0 = no limit)")
	flags.Bool("notify", false, "show a desktop notification when the export finishes")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command) error {
	cfg, err := c.resolveExportConfig()
	if err != nil {
		return err
	}

	manager := process.NewManager(c.logger)
	ctx := manager.Start(cmd.Context())
	defer manager.Stop()
	rt := NewRuntimeConfig(c.config, ctx)

	deps := engine.NewDependencyFactory(c.logger, cfg).CreateWithOverrides(c.overrides)
	exporter, err := engine.New(c.logger, deps)
	if err != nil {
		return err
	}

	c.printInfo(fmt.Sprintf("Exporting %s to %s", cfg.ProjectPath, cfg.OutputPath))
	if err := exporter.Export(rt.Context, cfg); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	c.printSuccess(fmt.Sprintf("Export finished in %s: %s",
		time.Since(rt.StartTime).Round(time.Second), cfg.OutputPath))
	return nil
}

// resolveExportConfig layers defaults, the profile, then flags and
// environment variables.
func (c *CLI) resolveExportConfig() (*types.ExportConfig, error) {
	cfg, err := c.loadProfile()
	if err != nil {
		return nil, err
	}
	c.applyExportOverrides(cfg)

	for _, p := range []*string{&cfg.ProjectPath, &cfg.OutputPath, &cfg.EnginePath} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", *p, err)
		}
		*p = abs
	}
	return cfg, nil
}

// loadProfile reads --profile, or the profile in the project directory,
// falling back to defaults when there is none.
func (c *CLI) loadProfile() (*types.ExportConfig, error) {
	mgr := config.NewManager()

	path := c.config.ProfileFile
	if path == "" {
		found, err := mgr.FindProfile(c.config.ProjectPath)
		if errors.Is(err, config.ErrNoProfile) {
			cfg := types.DefaultExportConfig()
			cfg.ProjectPath = c.config.ProjectPath
			return cfg, nil
		}
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg, err := mgr.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Debug(fmt.Sprintf("Using export profile %s", path))
	}
	if cfg.ProjectPath == "" {
		cfg.ProjectPath = c.config.ProjectPath
	}
	return cfg, nil
}

// applyExportOverrides copies every flag or environment variable that was
// actually given onto cfg.
func (c *CLI) applyExportOverrides(cfg *types.ExportConfig) {
	v := c.viper
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	boolean := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	negated := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = !v.GetBool(key)
		}
	}

	if v.IsSet("project-path") {
		cfg.ProjectPath = v.GetString("project-path")
	}
	str("output-path", &cfg.OutputPath)
	str("engine-path", &cfg.EnginePath)
	str("tools-build-path", &cfg.ToolsBuildPath)
	str("game-build-path", &cfg.GameBuildPath)
	str("asset-bundling-path", &cfg.AssetBundlingPath)

	if v.IsSet("config") {
		cfg.BuildConfig = types.BuildConfig(strings.ToLower(v.GetString("config")))
	}
	if v.IsSet("platform") {
		cfg.Platform = types.Platform(strings.ToLower(v.GetString("platform")))
	}
	if v.IsSet("archive-output") {
		cfg.ArchiveFormat = types.ArchiveFormat(strings.ToLower(v.GetString("archive-output")))
	}
	if v.IsSet("max-bundle-size") {
		cfg.MaxBundleSizeMB = v.GetInt("max-bundle-size")
	}
	if v.IsSet("stage-timeout") {
		cfg.StageTimeout = v.GetDuration("stage-timeout")
	}

	boolean("game-lift", &cfg.EnableGameLift)
	boolean("should-build-assets", &cfg.BuildAssets)
	boolean("fail-on-asset-errors", &cfg.FailOnAssetErrors)
	boolean("build-tools", &cfg.BuildTools)
	boolean("allow-registry-overrides", &cfg.AllowRegistryOverrides)
	boolean("engine-centric", &cfg.EngineCentric)
	boolean("monolithic", &cfg.Monolithic)
	boolean("strict-archive", &cfg.StrictArchive)
	boolean("notify", &cfg.Notify)
	negated("no-game-launcher", &cfg.BuildGameLauncher)
	negated("no-server-launcher", &cfg.BuildServerLauncher)
	negated("no-unified-launcher", &cfg.BuildUnifiedLauncher)
}
