package cli

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/o3de-mps/mpsexport/internal/engine"
	"github.com/o3de-mps/mpsexport/pkg/process"
)

func (c *CLI) newGameLiftCmd() *cobra.Command {
	var opts engine.GameLiftConfig

	cmd := &cobra.Command{
		Use:   "gamelift-server",
		Short: "Build a server package for AWS GameLift",
		Long: `Enables the AWSGameLift and MPSGameLift gems and builds the server
launcher (modular and monolithic) and/or the project's assets, ready to be
uploaded to AWS GameLift. The gems stay enabled afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Code && !opts.Assets {
				return errors.New("nothing to build: pass --code, --assets or both")
			}
			projectPath, err := filepath.Abs(c.config.ProjectPath)
			if err != nil {
				return err
			}
			opts.ProjectPath = projectPath

			manager := process.NewManager(c.logger)
			ctx := manager.Start(cmd.Context())
			defer manager.Stop()

			deps := engine.NewDependencyFactory(c.logger, nil).CreateWithOverrides(c.overrides)
			exporter, err := engine.New(c.logger, deps)
			if err != nil {
				return err
			}
			if err := exporter.BuildGameLiftServer(ctx, opts); err != nil {
				return err
			}
			c.printSuccess("GameLift server package built")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Code, "code", false, "build the server launchers")
	cmd.Flags().BoolVar(&opts.Assets, "assets", false, "build the project's assets")
	cmd.Flags().StringVarP(&opts.Generator, "generator", "G", "", "CMake generator, e.g. \"Visual Studio 16\"")
	cmd.Flags().DurationVar(&opts.StageTimeout, "stage-timeout", 0, "kill any single build step running longer than this (0 = no limit)")

	return cmd
}
