package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	pcontext "github.com/o3de-mps/mpsexport/pkg/context"
	"github.com/o3de-mps/mpsexport/pkg/logger"
	"github.com/o3de-mps/mpsexport/pkg/toolchain"
)

// GameLiftGem must be enabled alongside FeatureGem for a GameLift server.
const GameLiftGem = "AWSGameLift"

const gameLiftStage = "gamelift"

// GameLiftConfig selects what BuildGameLiftServer builds
type GameLiftConfig struct {
	ProjectPath string
	Code        bool
	Assets      bool
	// Generator is passed to cmake -G; empty uses CMake's default.
	Generator    string
	StageTimeout time.Duration
}

// BuildGameLiftServer prepares a server package for AWS GameLift. Code
// enables the GameLift gems, which stay enabled, and builds the server
// launcher twice: once modular with the asset bundler, once monolithic.
// Assets builds the project's asset target. The first failing step stops
// the build.
func (e *Exporter) BuildGameLiftServer(ctx context.Context, cfg GameLiftConfig) error {
	if !cfg.Code && !cfg.Assets {
		return preconditionError(gameLiftStage, errors.New("nothing to build: select code, assets or both"))
	}
	if err := toolchain.ValidateGenerator(cfg.Generator); err != nil {
		return preconditionError(gameLiftStage, err)
	}

	ctx = pcontext.WithStage(pcontext.EnrichContext(ctx), gameLiftStage)
	log := logger.WithContext(ctx, e.logger).WithStage(gameLiftStage)

	project, err := e.deps.Manifest.ReadProject(cfg.ProjectPath)
	if err != nil {
		return preconditionError(gameLiftStage, err)
	}
	log.Info(fmt.Sprintf("Exporting AWS GameLift server package for %s", project.Name))

	buildDir := filepath.Join(cfg.ProjectPath, "build", toolchain.PlatformDir(e.goos))
	serverTarget := project.Name + ".ServerLauncher"

	if cfg.Code {
		for _, gem := range []string{GameLiftGem, FeatureGem} {
			if err := e.deps.Gems.EnableGem(ctx, cfg.ProjectPath, gem); err != nil {
				return toolError(gameLiftStage, fmt.Errorf("unable to enable the %s gem: %w", gem, err))
			}
		}

		modular := e.gameLiftCMake(cfg, buildDir).
			Targets(serverTarget, "AssetBundler")
		mono := e.gameLiftCMake(cfg, buildDir+"_mono").
			DefineBool("LY_MONOLITHIC_GAME", true).
			DefineBool("ALLOW_SETTINGS_REGISTRY_DEVELOPMENT_OVERRIDES", false).
			Targets(serverTarget)

		for _, cm := range []*toolchain.CMake{modular, mono} {
			if err := os.MkdirAll(cm.BuildDir, 0755); err != nil {
				return unexpectedError(gameLiftStage, err)
			}
			log.Info(fmt.Sprintf("Building %s in %s", serverTarget, cm.BuildDir))
			if err := e.mustRun(ctx, gameLiftStage, log, cfg.StageTimeout, cm.ConfigureArgs(), ""); err != nil {
				return err
			}
			if err := e.mustRun(ctx, gameLiftStage, log, cfg.StageTimeout, cm.BuildArgs(), ""); err != nil {
				return err
			}
		}
	}

	if cfg.Assets {
		assets := e.gameLiftCMake(cfg, buildDir).Targets(project.Name + ".Assets")
		log.Info(fmt.Sprintf("Processing assets for %s", project.Name))
		if err := e.mustRun(ctx, gameLiftStage, log, cfg.StageTimeout, assets.BuildArgs(), ""); err != nil {
			return err
		}
	}

	log.Success(fmt.Sprintf("GameLift server package for %s is ready in %s", project.Name, buildDir))
	return nil
}

func (e *Exporter) gameLiftCMake(cfg GameLiftConfig, buildDir string) *toolchain.CMake {
	cm := toolchain.New(cfg.ProjectPath, buildDir).
		Generator(cfg.Generator).
		Config(toolchain.ToolsConfig)
	if strings.HasPrefix(cfg.Generator, "Visual Studio") {
		cm.NativeArgs("/m")
	}
	return cm
}
