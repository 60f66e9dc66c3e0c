// Package cli provides the command-line interface for mps-export
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/o3de-mps/mpsexport/pkg/interfaces"
	"github.com/o3de-mps/mpsexport/pkg/logger"
)

// EnvPrefix is prepended to flag names to form environment overrides,
// e.g. MPSEXPORT_OUTPUT_PATH.
const EnvPrefix = "MPSEXPORT"

// CLI encapsulates the command-line interface and keeps all state on the
// instance, so tests can run several side by side.
type CLI struct {
	config    *Config
	rootCmd   *cobra.Command
	viper     *viper.Viper
	logger    logger.Logger
	console   *logger.ConsoleLogger
	output    io.Writer
	errorOut  io.Writer
	overrides interfaces.ExportDependencies
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(config *Config) *CLI {
	if config == nil {
		config = NewConfig()
	}

	cli := &CLI{
		config:   config,
		viper:    viper.New(),
		console:  logger.NewConsoleLogger(),
		output:   os.Stdout,
		errorOut: os.Stderr,
	}

	cli.setupCommands()
	return cli
}

// NewCLIWithOutput creates a CLI with custom output writers (for testing)
func NewCLIWithOutput(config *Config, output, errorOut io.Writer) *CLI {
	cli := NewCLI(config)
	cli.output = output
	cli.errorOut = errorOut
	cli.console = logger.NewConsoleLoggerWithOutput(output, errorOut)
	cli.rootCmd.SetOut(output)
	cli.rootCmd.SetErr(errorOut)
	return cli
}

// WithDependencies replaces the export collaborators the CLI would
// otherwise create. Nil fields keep their defaults.
func (c *CLI) WithDependencies(deps interfaces.ExportDependencies) *CLI {
	c.overrides = deps
	return c
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "mps-export",
		Short: "Export the MultiplayerSample project as a standalone release",
		Long: `mps-export builds the O3DE MultiplayerSample launchers, bundles the
project's assets and assembles one release directory per launcher
(Game, Server, Unified), optionally compressed into an archive.

The engine and project must be set up and registered beforehand.`,

		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initializeConfig,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.setupFlags()

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("mps-export v{{.Version}}\n")

	c.rootCmd.AddCommand(c.newExportCmd())
	c.rootCmd.AddCommand(c.newGameLiftCmd())
	c.rootCmd.AddCommand(c.newInitCmd())
	c.rootCmd.AddCommand(c.newStatusCmd())
	c.rootCmd.AddCommand(c.newValidateCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.PersistentFlags()

	flags.StringVar(&c.config.ProfileFile, "profile", "", "export profile (default: mps-export.yaml in the project)")
	flags.StringVar(&c.config.ProjectPath, "project-path", ".", "project directory containing project.json")
	flags.StringVar(&c.config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&c.config.LogFile, "log-file", "", "also append log output to this file")
	flags.BoolVarP(&c.config.Quiet, "quiet", "q", false, "suppress logging unless an error occurs")
}

func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	c.viper.SetEnvPrefix(EnvPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.viper.AutomaticEnv()
	if err := c.viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	// Environment values only apply when the flag was not given.
	c.config.ProfileFile = c.viper.GetString("profile")
	c.config.ProjectPath = c.viper.GetString("project-path")
	c.config.LogLevel = c.viper.GetString("log-level")
	c.config.LogFile = c.viper.GetString("log-file")
	c.config.Quiet = c.viper.GetBool("quiet")

	if c.output == os.Stdout {
		c.logger = logger.CreateLogger(c.config.LogFile, c.config.EffectiveLogLevel())
	} else {
		c.logger = logger.CreateLoggerWithOutput(c.config.LogFile, c.config.EffectiveLogLevel(), c.output)
	}
	return nil
}

// legacyFlagNames maps the short spellings of the original export script
// onto the long flag names, so --out, --cfg, --gl etc. keep working.
var legacyFlagNames = map[string]string{
	"out":       "output-path",
	"cfg":       "config",
	"gl":        "game-lift",
	"assets":    "should-build-assets",
	"foa":       "fail-on-asset-errors",
	"bt":        "build-tools",
	"tbp":       "tools-build-path",
	"gbp":       "game-build-path",
	"regovr":    "allow-registry-overrides",
	"abp":       "asset-bundling-path",
	"maxsize":   "max-bundle-size",
	"nogame":    "no-game-launcher",
	"noserver":  "no-server-launcher",
	"nounified": "no-unified-launcher",
	"pl":        "platform",
	"ec":        "engine-centric",
}

func normalizeLegacyFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if long, ok := legacyFlagNames[name]; ok {
		return pflag.NormalizedName(long)
	}
	return pflag.NormalizedName(name)
}

// Helper methods for user-facing output

func (c *CLI) printSuccess(message string) {
	c.console.Success(message)
}

func (c *CLI) printError(message string) {
	c.console.Error(message)
}

func (c *CLI) printInfo(message string) {
	c.console.Info(message)
}

func (c *CLI) printWarning(message string) {
	c.console.Warn(message)
}

// ExecuteWithVersion runs the CLI on os.Args
func ExecuteWithVersion(version string) error {
	config := NewConfig()
	config.Version = version
	cli := NewCLI(config)
	if err := cli.Execute(os.Args[1:]); err != nil {
		cli.printError(err.Error())
		return err
	}
	return nil
}
