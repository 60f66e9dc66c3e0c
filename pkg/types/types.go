// Package types provides the core export types shared by the pipeline and CLI
package types

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// LauncherType is a set of launcher kinds; values combine with bitwise OR
type LauncherType uint8

const (
	LauncherGame LauncherType = 1 << iota
	LauncherServer
	LauncherUnified

	LauncherNone LauncherType = 0
	LauncherAll               = LauncherGame | LauncherServer | LauncherUnified
)

var launcherKinds = []struct {
	flag LauncherType
	kind string
}{
	{LauncherGame, "Game"},
	{LauncherServer, "Server"},
	{LauncherUnified, "Unified"},
}

// Has reports whether every bit of other is set in l
func (l LauncherType) Has(other LauncherType) bool {
	return other != 0 && l&other == other
}

// Kinds returns the set kinds in canonical order (Game, Server, Unified)
func (l LauncherType) Kinds() []string {
	var kinds []string
	for _, k := range launcherKinds {
		if l&k.flag != 0 {
			kinds = append(kinds, k.kind)
		}
	}
	return kinds
}

// Flags splits l into its single-bit members in canonical order
func (l LauncherType) Flags() []LauncherType {
	var flags []LauncherType
	for _, k := range launcherKinds {
		if l&k.flag != 0 {
			flags = append(flags, k.flag)
		}
	}
	return flags
}

// TargetNames returns the build targets implied by the set bits,
// e.g. "MultiplayerSample.GameLauncher"
func (l LauncherType) TargetNames(project string) []string {
	var names []string
	for _, kind := range l.Kinds() {
		names = append(names, fmt.Sprintf("%s.%sLauncher", project, kind))
	}
	return names
}

func (l LauncherType) String() string {
	if l == LauncherNone {
		return "none"
	}
	return strings.Join(l.Kinds(), "|")
}

// LauncherFromFlags builds a LauncherType from per-kind booleans
func LauncherFromFlags(game, server, unified bool) LauncherType {
	var l LauncherType
	if game {
		l |= LauncherGame
	}
	if server {
		l |= LauncherServer
	}
	if unified {
		l |= LauncherUnified
	}
	return l
}

// BuildConfig is the CMake configuration used for project binaries
type BuildConfig string

const (
	BuildConfigDebug   BuildConfig = "debug"
	BuildConfigProfile BuildConfig = "profile"
	BuildConfigRelease BuildConfig = "release"
)

// Valid reports whether c is a known configuration
func (c BuildConfig) Valid() bool {
	switch c {
	case BuildConfigDebug, BuildConfigProfile, BuildConfigRelease:
		return true
	}
	return false
}

// Platform is an asset platform identifier
type Platform string

const (
	PlatformPC    Platform = "pc"
	PlatformLinux Platform = "linux"
	PlatformMac   Platform = "mac"
)

// Valid reports whether p is a supported asset platform
func (p Platform) Valid() bool {
	switch p {
	case PlatformPC, PlatformLinux, PlatformMac:
		return true
	}
	return false
}

// DefaultPlatform maps the host OS onto an asset platform. The second result
// is false when the host has no matching platform.
func DefaultPlatform() (Platform, bool) {
	return PlatformForOS(runtime.GOOS)
}

// PlatformForOS maps a GOOS value onto an asset platform
func PlatformForOS(goos string) (Platform, bool) {
	switch goos {
	case "windows":
		return PlatformPC, true
	case "linux":
		return PlatformLinux, true
	case "darwin":
		return PlatformMac, true
	}
	return PlatformPC, false
}

// ArchiveFormat selects how the export output is compressed
type ArchiveFormat string

const (
	ArchiveNone  ArchiveFormat = "none"
	ArchiveZip   ArchiveFormat = "zip"
	ArchiveGzip  ArchiveFormat = "gzip"
	ArchiveBzip2 ArchiveFormat = "bz2"
	ArchiveXz    ArchiveFormat = "xz"
)

// Valid reports whether f is a known archive format
func (f ArchiveFormat) Valid() bool {
	switch f {
	case ArchiveNone, ArchiveZip, ArchiveGzip, ArchiveBzip2, ArchiveXz, "":
		return true
	}
	return false
}

// Enabled reports whether archiving was requested
func (f ArchiveFormat) Enabled() bool {
	return f != "" && f != ArchiveNone
}

// Extension returns the archive file suffix for f
func (f ArchiveFormat) Extension() string {
	switch f {
	case ArchiveZip:
		return ".zip"
	case ArchiveGzip:
		return ".tar.gz"
	case ArchiveBzip2:
		return ".tar.bz2"
	case ArchiveXz:
		return ".tar.xz"
	}
	return ""
}

// ExportLayout describes one packaging destination
type ExportLayout struct {
	Launcher            LauncherType `json:"launcher" yaml:"launcher"`
	OutputPath          string       `json:"outputPath" yaml:"outputPath"`
	ProjectFilePatterns []string     `json:"projectFilePatterns" yaml:"projectFilePatterns"`
	IgnoreFilePatterns  []string     `json:"ignoreFilePatterns" yaml:"ignoreFilePatterns"`
}

// ExportConfig is the structured input of an export run
type ExportConfig struct {
	ProjectPath string `json:"projectPath" yaml:"projectPath"`
	EnginePath  string `json:"enginePath" yaml:"enginePath"`
	OutputPath  string `json:"outputPath" yaml:"outputPath"`

	Platform    Platform    `json:"platform" yaml:"platform"`
	BuildConfig BuildConfig `json:"config" yaml:"config"`

	BuildGameLauncher    bool `json:"buildGameLauncher" yaml:"buildGameLauncher"`
	BuildServerLauncher  bool `json:"buildServerLauncher" yaml:"buildServerLauncher"`
	BuildUnifiedLauncher bool `json:"buildUnifiedLauncher" yaml:"buildUnifiedLauncher"`
	Monolithic           bool `json:"monolithic" yaml:"monolithic"`

	BuildTools             bool `json:"buildTools" yaml:"buildTools"`
	BuildAssets            bool `json:"buildAssets" yaml:"buildAssets"`
	FailOnAssetErrors      bool `json:"failOnAssetErrors" yaml:"failOnAssetErrors"`
	EnableGameLift         bool `json:"gameLift" yaml:"gameLift"`
	AllowRegistryOverrides bool `json:"allowRegistryOverrides" yaml:"allowRegistryOverrides"`
	EngineCentric          bool `json:"engineCentric" yaml:"engineCentric"`

	ToolsBuildPath    string `json:"toolsBuildPath,omitempty" yaml:"toolsBuildPath,omitempty"`
	GameBuildPath     string `json:"gameBuildPath,omitempty" yaml:"gameBuildPath,omitempty"`
	AssetBundlingPath string `json:"assetBundlingPath,omitempty" yaml:"assetBundlingPath,omitempty"`
	MaxBundleSizeMB   int    `json:"maxBundleSize" yaml:"maxBundleSize"`

	ArchiveFormat ArchiveFormat `json:"archiveOutput" yaml:"archiveOutput"`
	StrictArchive bool          `json:"strictArchive" yaml:"strictArchive"`

	// StageTimeout bounds each external command; zero means no limit.
	StageTimeout time.Duration `json:"stageTimeout,omitempty" yaml:"stageTimeout,omitempty"`
	Notify       bool          `json:"notify" yaml:"notify"`
}

// DefaultExportConfig returns the defaults used by the export command
func DefaultExportConfig() *ExportConfig {
	platform, _ := DefaultPlatform()
	return &ExportConfig{
		Platform:             platform,
		BuildConfig:          BuildConfigProfile,
		BuildGameLauncher:    true,
		BuildServerLauncher:  true,
		BuildUnifiedLauncher: true,
		Monolithic:           true,
		BuildTools:           true,
		MaxBundleSizeMB:      2048,
		ArchiveFormat:        ArchiveNone,
	}
}

// Launchers returns the requested launcher set
func (c *ExportConfig) Launchers() LauncherType {
	return LauncherFromFlags(c.BuildGameLauncher, c.BuildServerLauncher, c.BuildUnifiedLauncher)
}
