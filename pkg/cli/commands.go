package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/o3de-mps/mpsexport/pkg/state"
	"github.com/o3de-mps/mpsexport/pkg/validation"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the outcome of the last export",
		Long:  `Display the run report the last export wrote into its output directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(outputPath)
		},
	}

	cmd.Flags().StringVar(&outputPath, "output-path", "", "export output directory (default: from the profile)")
	return cmd
}

func (c *CLI) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the export configuration",
		Long:  `Check the profile, flags and environment together without building anything.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate()
		},
	}
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mps-export",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.output, "mps-export v%s\n", c.config.Version)
		},
	}
}

// Implementation functions

func (c *CLI) runStatus(outputPath string) error {
	if outputPath == "" {
		cfg, err := c.resolveExportConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		outputPath = cfg.OutputPath
	}
	if outputPath == "" {
		return errors.New("no output path: pass --output-path or set outputPath in the profile")
	}

	report, err := state.LoadReport(outputPath)
	if errors.Is(err, os.ErrNotExist) {
		c.printInfo(fmt.Sprintf("No export has run into %s yet", outputPath))
		return nil
	}
	if err != nil {
		return err
	}

	statusColor := color.WhiteString(string(report.Status))
	switch report.Status {
	case state.RunStatusSucceeded:
		statusColor = color.GreenString(string(report.Status))
	case state.RunStatusFailed:
		statusColor = color.RedString(string(report.Status))
	case state.RunStatusRunning:
		statusColor = color.YellowString(string(report.Status))
	}

	w := tabwriter.NewWriter(c.output, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PROJECT\t%s\n", report.ProjectName)
	fmt.Fprintf(w, "RUN\t%s\n", report.RunID)
	fmt.Fprintf(w, "STATUS\t%s\n", statusColor)
	fmt.Fprintf(w, "STARTED\t%s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "DURATION\t%s\n", report.Duration.Round(time.Second))
	fmt.Fprintf(w, "STAGES\t%s\n", strings.Join(report.Stages, ", "))
	if report.FailedStage != "" {
		fmt.Fprintf(w, "FAILED STAGE\t%s\n", report.FailedStage)
		fmt.Fprintf(w, "ERROR\t%s\n", report.LastError)
	}
	for _, layout := range report.Layouts {
		fmt.Fprintf(w, "LAYOUT\t%s\n", layout)
	}
	for _, archive := range report.Archives {
		fmt.Fprintf(w, "ARCHIVE\t%s\n", archive)
	}
	return w.Flush()
}

func (c *CLI) runValidate() error {
	cfg, err := c.resolveExportConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result := validation.NewExportValidator().Validate(cfg)
	for _, w := range result.Warnings() {
		c.printWarning(w.Error())
	}
	if err := result.Err(); err != nil {
		return err
	}

	c.printSuccess(fmt.Sprintf("Configuration is valid: %s launchers for %s (%s) into %s",
		cfg.Launchers(), cfg.Platform, cfg.BuildConfig, cfg.OutputPath))
	return nil
}
