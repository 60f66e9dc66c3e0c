// Package config loads export profiles: YAML (or JSON) files holding a
// partial export configuration layered over the built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/o3de-mps/mpsexport/pkg/types"
)

// ProfileNames are searched, in order, when no profile path is given.
var ProfileNames = []string{"mps-export.yaml", "mps-export.yml", "mps-export.json"}

// ErrNoProfile is returned by FindProfile when no profile file exists.
var ErrNoProfile = errors.New("no export profile found")

// Manager handles profile operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// LoadConfig reads the profile at path on top of types.DefaultExportConfig.
// Unknown keys are rejected so typos do not silently fall back to defaults.
// Relative paths in the profile are resolved against the profile's directory.
func (m *Manager) LoadConfig(path string) (*types.ExportConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	cfg := types.DefaultExportConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, p := range []*string{
		&cfg.ProjectPath, &cfg.EnginePath, &cfg.OutputPath,
		&cfg.ToolsBuildPath, &cfg.GameBuildPath, &cfg.AssetBundlingPath,
	} {
		*p = resolvePath(base, *p)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML
func (m *Manager) SaveConfig(path string, cfg *types.ExportConfig) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// FindProfile returns the first of ProfileNames present in dir
func (m *Manager) FindProfile(dir string) (string, error) {
	for _, name := range ProfileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoProfile, dir)
}

// GetDefaultConfig returns the defaults for a project, as written by init
func (m *Manager) GetDefaultConfig(projectPath string) *types.ExportConfig {
	cfg := types.DefaultExportConfig()
	cfg.ProjectPath = projectPath
	cfg.OutputPath = filepath.Join(projectPath, "build", "export")
	return cfg
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
