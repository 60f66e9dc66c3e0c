package toolchain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	AssetBundlerBatch   = "AssetBundlerBatch"
	AssetProcessorBatch = "AssetProcessorBatch"

	// ToolsConfig is the configuration the asset tools are always built in.
	ToolsConfig = "profile"
)

// ErrToolNotFound is wrapped by Resolver errors for missing executables.
var ErrToolNotFound = errors.New("tool executable not found")

// ExeExt returns the executable suffix for goos.
func ExeExt(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}

// PlatformDir returns the per-host build folder name used by server builds.
func PlatformDir(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "mac"
	}
	return goos
}

// Resolver maps tool names to executables inside a tools build directory.
type Resolver struct {
	BuildDir string
	GOOS     string
}

// NewResolver creates a Resolver for the host OS.
func NewResolver(buildDir string) *Resolver {
	return &Resolver{BuildDir: buildDir, GOOS: runtime.GOOS}
}

// Path returns where tool is expected: <build>/bin/profile/<tool>[.exe]
func (r *Resolver) Path(tool string) string {
	return filepath.Join(r.BuildDir, "bin", ToolsConfig, tool+ExeExt(r.GOOS))
}

// Resolve returns the absolute path of tool, or an error wrapping
// ErrToolNotFound when it is missing.
func (r *Resolver) Resolve(tool string) (string, error) {
	path := r.Path(tool)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// Validate checks every tool and reports all missing ones in a single error.
func (r *Resolver) Validate(tools ...string) error {
	var missing []string
	for _, t := range tools {
		if _, err := r.Resolve(t); err != nil {
			missing = append(missing, r.Path(t))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrToolNotFound, strings.Join(missing, ", "))
	}
	return nil
}
