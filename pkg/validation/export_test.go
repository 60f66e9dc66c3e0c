package validation_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/types"
	"github.com/o3de-mps/mpsexport/pkg/validation"
)

func validConfig(t *testing.T) *types.ExportConfig {
	t.Helper()
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "project.json"), []byte(`{"project_name":"MPS","gem_names":["Atom"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := types.DefaultExportConfig()
	cfg.ProjectPath = project
	cfg.OutputPath = filepath.Join(t.TempDir(), "out")
	cfg.Platform = types.PlatformLinux
	return cfg
}

func TestExportValidator_Valid(t *testing.T) {
	result := validation.NewExportValidator().Validate(validConfig(t))
	if !result.Valid {
		t.Fatalf("expected valid config, got %v", result.Errors)
	}
	if result.Err() != nil {
		t.Errorf("Err() = %v", result.Err())
	}
}

func TestExportValidator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ExportConfig)
		field  string
	}{
		{"missing project", func(c *types.ExportConfig) { c.ProjectPath = "" }, "projectPath"},
		{"project without manifest", func(c *types.ExportConfig) { c.ProjectPath = os.TempDir() + "/definitely-not-a-project" }, "projectPath"},
		{"missing output", func(c *types.ExportConfig) { c.OutputPath = "" }, "outputPath"},
		{"output is project", func(c *types.ExportConfig) { c.OutputPath = c.ProjectPath }, "outputPath"},
		{"engine centric without engine", func(c *types.ExportConfig) { c.EngineCentric = true }, "enginePath"},
		{"bad platform", func(c *types.ExportConfig) { c.Platform = "ps5" }, "platform"},
		{"bad config", func(c *types.ExportConfig) { c.BuildConfig = "fast" }, "config"},
		{"bad archive", func(c *types.ExportConfig) { c.ArchiveFormat = "rar" }, "archiveOutput"},
		{"zero bundle size", func(c *types.ExportConfig) { c.MaxBundleSizeMB = 0 }, "maxBundleSize"},
		{"negative timeout", func(c *types.ExportConfig) { c.StageTimeout = -time.Second }, "stageTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			result := validation.NewExportValidator().Validate(cfg)
			if result.Valid {
				t.Fatal("expected invalid config")
			}
			found := false
			for _, e := range result.Errors {
				if e.Field == tt.field && e.Level == validation.ValidationLevelError {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.field, result.Errors)
			}

			var verr *validation.ValidationError
			if !errors.As(result.Err(), &verr) {
				t.Errorf("Err() should expose ValidationError, got %v", result.Err())
			}
		})
	}
}

func TestExportValidator_Warnings(t *testing.T) {
	cfg := validConfig(t)
	cfg.BuildGameLauncher, cfg.BuildServerLauncher, cfg.BuildUnifiedLauncher = false, false, false
	cfg.FailOnAssetErrors = true
	cfg.StrictArchive = true

	result := validation.NewExportValidator().Validate(cfg)
	if !result.Valid {
		t.Fatalf("warnings must not invalidate: %v", result.Errors)
	}
	if got := len(result.Warnings()); got != 3 {
		t.Errorf("got %d warnings, want 3: %v", got, result.Warnings())
	}
}

func TestValidate_Nil(t *testing.T) {
	if validation.NewExportValidator().Validate(nil).Valid {
		t.Error("nil config must be invalid")
	}
}

func TestMissingFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "GameSeedList.seed")
	if err := os.WriteFile(present, nil, 0644); err != nil {
		t.Fatal(err)
	}
	missing := validation.MissingFiles([]string{present, filepath.Join(dir, "VFXSeedList.seed"), dir})
	if len(missing) != 2 || !strings.HasSuffix(missing[0], "VFXSeedList.seed") || missing[1] != dir {
		t.Errorf("MissingFiles() = %v", missing)
	}
}
