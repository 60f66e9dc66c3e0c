package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/o3de-mps/mpsexport/internal/engine"
	"github.com/o3de-mps/mpsexport/pkg/config"
	"github.com/o3de-mps/mpsexport/pkg/manifest"
)

func (c *CLI) newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default export profile for the project",
		Long: `Init writes mps-export.yaml into the project directory with the default
export settings. Paths in the profile are relative to the profile itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing profile")

	return cmd
}

func (c *CLI) runInit(force bool) error {
	profilePath := c.config.ProfileFile
	if profilePath == "" {
		profilePath = filepath.Join(c.config.ProjectPath, config.ProfileNames[0])
	}

	if _, err := os.Stat(profilePath); err == nil && !force {
		return fmt.Errorf("profile %s already exists. Use --force to overwrite", profilePath)
	}

	cfg := config.NewManager().GetDefaultConfig(".")
	if rel, err := filepath.Rel(filepath.Dir(profilePath), c.config.ProjectPath); err == nil {
		cfg.ProjectPath = rel
		cfg.OutputPath = filepath.Join(rel, "build", "export")
	}

	project, err := manifest.ReadProject(c.config.ProjectPath)
	if err != nil {
		c.printWarning(fmt.Sprintf("Could not read the project manifest: %v", err))
	} else {
		c.printInfo(fmt.Sprintf("Detected project %s", project.Name))
		// Keep the feature gem as the project has it so exports do not toggle it.
		cfg.EnableGameLift = project.HasGem(engine.FeatureGem)
	}

	if err := config.NewManager().SaveConfig(profilePath, cfg); err != nil {
		return err
	}

	c.printSuccess(fmt.Sprintf("Created export profile at %s", profilePath))
	c.printInfo(fmt.Sprintf("Launchers: %s, platform: %s, config: %s", cfg.Launchers(), cfg.Platform, cfg.BuildConfig))
	return nil
}
