// Package validation checks an export configuration before anything runs
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/o3de-mps/mpsexport/pkg/manifest"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

// ValidationLevel represents error severity
type ValidationLevel string

const (
	ValidationLevelError   ValidationLevel = "error"
	ValidationLevelWarning ValidationLevel = "warning"
)

// ValidationError is one finding about a config field
type ValidationError struct {
	Field   string
	Message string
	Level   ValidationLevel
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Field, e.Message)
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// AddError adds a finding; only error-level findings make the result invalid
func (r *ValidationResult) AddError(field, message string, level ValidationLevel) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Level: level})
	if level == ValidationLevelError {
		r.Valid = false
	}
}

// Warnings returns the warning-level findings
func (r *ValidationResult) Warnings() []ValidationError {
	return r.filter(ValidationLevelWarning)
}

// Err joins the error-level findings, or returns nil when the result is valid
func (r *ValidationResult) Err() error {
	var errs []error
	for _, e := range r.filter(ValidationLevelError) {
		e := e
		errs = append(errs, &e)
	}
	return errors.Join(errs...)
}

func (r *ValidationResult) filter(level ValidationLevel) []ValidationError {
	var out []ValidationError
	for _, e := range r.Errors {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// ExportValidator validates export configurations
type ExportValidator struct{}

// NewExportValidator creates a new export validator
func NewExportValidator() *ExportValidator {
	return &ExportValidator{}
}

// Validate checks cfg for values the pipeline cannot work with
func (v *ExportValidator) Validate(cfg *types.ExportConfig) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if cfg == nil {
		result.AddError("config", "export configuration is required", ValidationLevelError)
		return result
	}

	v.validatePaths(cfg, result)
	v.validateChoices(cfg, result)
	v.validateCombinations(cfg, result)
	return result
}

func (v *ExportValidator) validatePaths(cfg *types.ExportConfig, result *ValidationResult) {
	if cfg.ProjectPath == "" {
		result.AddError("projectPath", "project path is required", ValidationLevelError)
	} else if _, err := os.Stat(filepath.Join(cfg.ProjectPath, manifest.ProjectFile)); err != nil {
		result.AddError("projectPath", fmt.Sprintf("no %s found in %s", manifest.ProjectFile, cfg.ProjectPath), ValidationLevelError)
	}

	if cfg.OutputPath == "" {
		result.AddError("outputPath", "output path is required", ValidationLevelError)
	} else if cfg.ProjectPath != "" && filepath.Clean(cfg.OutputPath) == filepath.Clean(cfg.ProjectPath) {
		result.AddError("outputPath", "output path must not be the project directory", ValidationLevelError)
	}

	if cfg.EngineCentric && cfg.EnginePath == "" {
		result.AddError("enginePath", "engine-centric builds need an engine path", ValidationLevelError)
	}
	if cfg.EnginePath != "" {
		if info, err := os.Stat(cfg.EnginePath); err != nil || !info.IsDir() {
			result.AddError("enginePath", fmt.Sprintf("engine path %s is not a directory", cfg.EnginePath), ValidationLevelError)
		}
	}
}

func (v *ExportValidator) validateChoices(cfg *types.ExportConfig, result *ValidationResult) {
	if !cfg.Platform.Valid() {
		result.AddError("platform", fmt.Sprintf("unknown platform %q (want pc, linux or mac)", cfg.Platform), ValidationLevelError)
	}
	if !cfg.BuildConfig.Valid() {
		result.AddError("config", fmt.Sprintf("unknown build configuration %q", cfg.BuildConfig), ValidationLevelError)
	}
	if !cfg.ArchiveFormat.Valid() {
		result.AddError("archiveOutput", fmt.Sprintf("unknown archive format %q", cfg.ArchiveFormat), ValidationLevelError)
	}
	if cfg.MaxBundleSizeMB <= 0 {
		result.AddError("maxBundleSize", "max bundle size must be positive", ValidationLevelError)
	}
	if cfg.StageTimeout < 0 {
		result.AddError("stageTimeout", "stage timeout must not be negative", ValidationLevelError)
	}
}

func (v *ExportValidator) validateCombinations(cfg *types.ExportConfig, result *ValidationResult) {
	if cfg.Launchers() == types.LauncherNone {
		result.AddError("launchers", "no launcher selected; only assets will be bundled", ValidationLevelWarning)
	}
	if cfg.FailOnAssetErrors && !cfg.BuildAssets {
		result.AddError("failOnAssetErrors", "has no effect unless assets are built", ValidationLevelWarning)
	}
	if cfg.StrictArchive && !cfg.ArchiveFormat.Enabled() {
		result.AddError("strictArchive", "has no effect without an archive format", ValidationLevelWarning)
	}
	if cfg.BuildConfig == types.BuildConfigRelease && cfg.AllowRegistryOverrides {
		result.AddError("allowRegistryOverrides", "release builds normally ship without registry overrides", ValidationLevelWarning)
	}
}

// MissingFiles returns every path in paths that is not an existing regular file
func MissingFiles(paths []string) []string {
	var missing []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			missing = append(missing, p)
		}
	}
	return missing
}
