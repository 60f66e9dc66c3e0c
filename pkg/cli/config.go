package cli

import (
	"context"
	"time"

	pcontext "github.com/o3de-mps/mpsexport/pkg/context"
)

// Config holds the global CLI settings shared by every command.
type Config struct {
	ProfileFile string
	ProjectPath string
	LogLevel    string
	LogFile     string
	Quiet       bool
	Version     string
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		ProjectPath: ".",
		LogLevel:    "info",
	}
}

// EffectiveLogLevel folds --quiet into the log level.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return "error"
	}
	return c.LogLevel
}

// RuntimeConfig holds runtime state for one command invocation
type RuntimeConfig struct {
	Config    *Config
	Context   context.Context
	StartTime time.Time
	RunID     string
}

// NewRuntimeConfig stamps a run ID and start time onto ctx.
func NewRuntimeConfig(cfg *Config, ctx context.Context) *RuntimeConfig {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = pcontext.EnrichContext(ctx)

	return &RuntimeConfig{
		Config:    cfg,
		Context:   ctx,
		StartTime: pcontext.GetStartTime(ctx),
		RunID:     pcontext.GetRunID(ctx),
	}
}
