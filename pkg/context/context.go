// Package context carries export run metadata (run ID, stage, start time)
// through context.Context so log lines can be correlated per run.
package context

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Unexported struct pointers prevent key collisions.
var (
	runIDKey     = &struct{}{}
	stageKey     = &struct{}{}
	projectKey   = &struct{}{}
	startTimeKey = &struct{}{}
)

const (
	unknownRun   = "unknown-run"
	unknownStage = "unknown-stage"
)

// WithRunID adds a run ID to the context, generating one when empty.
func WithRunID(parent context.Context, runID string) context.Context {
	if runID == "" {
		runID = GenerateRunID()
	}
	return context.WithValue(parent, runIDKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		return id
	}
	return unknownRun
}

// WithStage records the pipeline stage currently executing.
func WithStage(parent context.Context, stage string) context.Context {
	return context.WithValue(parent, stageKey, stage)
}

// GetStage retrieves the stage name from context
func GetStage(ctx context.Context) string {
	if s, ok := ctx.Value(stageKey).(string); ok && s != "" {
		return s
	}
	return unknownStage
}

// WithProject records the project being exported.
func WithProject(parent context.Context, project string) context.Context {
	return context.WithValue(parent, projectKey, project)
}

// GetProject retrieves the project name from context, or "".
func GetProject(ctx context.Context) string {
	if p, ok := ctx.Value(projectKey).(string); ok {
		return p
	}
	return ""
}

// WithStartTime adds the run start time to the context
func WithStartTime(parent context.Context, startTime time.Time) context.Context {
	return context.WithValue(parent, startTimeKey, startTime)
}

// GetStartTime retrieves the start time, or the zero time when unset.
func GetStartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startTimeKey).(time.Time); ok {
		return t
	}
	return time.Time{}
}

// GetDuration returns the time elapsed since the recorded start time, or 0.
func GetDuration(ctx context.Context) time.Duration {
	start := GetStartTime(ctx)
	if start.IsZero() {
		return 0
	}
	return time.Since(start)
}

// GenerateRunID creates a new unique run ID
func GenerateRunID() string {
	return "run_" + uuid.New().String()
}

// EnrichContext stamps a run ID (if missing) and the start time onto ctx.
func EnrichContext(parent context.Context) context.Context {
	ctx := parent
	if GetRunID(ctx) == unknownRun {
		ctx = WithRunID(ctx, "")
	}
	return WithStartTime(ctx, time.Now())
}

// IsKnownRun reports whether a run ID was attached to ctx.
func IsKnownRun(ctx context.Context) bool {
	return GetRunID(ctx) != unknownRun
}

// IsKnownStage reports whether a stage was attached to ctx.
func IsKnownStage(ctx context.Context) bool {
	return GetStage(ctx) != unknownStage
}
