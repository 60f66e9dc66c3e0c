package toolchain_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/o3de-mps/mpsexport/pkg/toolchain"
)

func TestCMake_ConfigureArgs(t *testing.T) {
	c := toolchain.New("/src", "/build/game").
		Generator("Ninja Multi-Config").
		DefineBool("LY_MONOLITHIC_GAME", true).
		DefineBool("ALLOW_SETTINGS_REGISTRY_DEVELOPMENT_OVERRIDES", false).
		Define("LY_PROJECTS", "/proj")

	want := []string{
		"cmake", "-B", "/build/game", "-S", "/src", "-G", "Ninja Multi-Config",
		"-DALLOW_SETTINGS_REGISTRY_DEVELOPMENT_OVERRIDES=0",
		"-DLY_MONOLITHIC_GAME=1",
		"-DLY_PROJECTS=/proj",
	}
	if got := c.ConfigureArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ConfigureArgs() =\n%v\nwant\n%v", got, want)
	}
}

func TestCMake_BuildArgs(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*toolchain.CMake)
		want  []string
	}{
		{
			name:  "bare",
			setup: func(*toolchain.CMake) {},
			want:  []string{"cmake", "--build", "b"},
		},
		{
			name: "union of targets is deduplicated",
			setup: func(c *toolchain.CMake) {
				c.Targets("P.GameLauncher", "P.ServerLauncher").Targets("P.GameLauncher").Config("profile")
			},
			want: []string{"cmake", "--build", "b", "--target", "P.GameLauncher", "P.ServerLauncher", "--config", "profile"},
		},
		{
			name: "native args",
			setup: func(c *toolchain.CMake) {
				c.Targets("P.Assets").Config("profile").NativeArgs("/m")
			},
			want: []string{"cmake", "--build", "b", "--target", "P.Assets", "--config", "profile", "--", "/m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := toolchain.New("s", "b")
			tt.setup(c)
			if got := c.BuildArgs(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	r := &toolchain.Resolver{BuildDir: dir, GOOS: "windows"}

	if got := r.Path(toolchain.AssetBundlerBatch); got != filepath.Join(dir, "bin", "profile", "AssetBundlerBatch.exe") {
		t.Errorf("Path() = %s", got)
	}

	_, err := r.Resolve(toolchain.AssetBundlerBatch)
	if !errors.Is(err, toolchain.ErrToolNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrToolNotFound", err)
	}

	binDir := filepath.Join(dir, "bin", "profile")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "AssetBundlerBatch.exe"), nil, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Resolve(toolchain.AssetBundlerBatch); err != nil {
		t.Errorf("Resolve() after creating tool: %v", err)
	}

	err = r.Validate(toolchain.AssetBundlerBatch, toolchain.AssetProcessorBatch)
	if err == nil || !strings.Contains(err.Error(), "AssetProcessorBatch.exe") {
		t.Errorf("Validate() should name the missing processor, got %v", err)
	}
	if strings.Contains(err.Error(), "AssetBundlerBatch.exe") {
		t.Errorf("Validate() should not list present tools: %v", err)
	}
}

func TestExeExtAndPlatformDir(t *testing.T) {
	if toolchain.ExeExt("windows") != ".exe" || toolchain.ExeExt("linux") != "" {
		t.Error("unexpected executable extension")
	}
	if toolchain.PlatformDir("darwin") != "mac" || toolchain.PlatformDir("windows") != "windows" || toolchain.PlatformDir("linux") != "linux" {
		t.Error("unexpected platform dir")
	}
}

func TestReadCache(t *testing.T) {
	dir := t.TempDir()
	content := `# This is the CMakeCache file.
// Generator used
CMAKE_GENERATOR:INTERNAL=Ninja Multi-Config
LY_MONOLITHIC_GAME:BOOL=1
LY_PROJECTS:STRING=/proj
`
	if err := os.WriteFile(filepath.Join(dir, toolchain.CacheFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cache, err := toolchain.ReadCache(dir)
	if err != nil {
		t.Fatalf("ReadCache() error = %v", err)
	}
	if cache.Generator() != "Ninja Multi-Config" {
		t.Errorf("Generator() = %q", cache.Generator())
	}
	if mono, ok := cache.Monolithic(); !mono || !ok {
		t.Errorf("Monolithic() = %v, %v", mono, ok)
	}
	if cache["LY_PROJECTS"] != "/proj" {
		t.Errorf("LY_PROJECTS = %q", cache["LY_PROJECTS"])
	}

	if _, err := toolchain.ReadCache(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist for unconfigured dir, got %v", err)
	}
}

func TestValidateGenerator(t *testing.T) {
	for _, g := range []string{"", "Ninja", "Visual Studio 16", "Unix Makefiles"} {
		if err := toolchain.ValidateGenerator(g); err != nil {
			t.Errorf("ValidateGenerator(%q) = %v", g, err)
		}
	}
	if err := toolchain.ValidateGenerator("Borland Makefiles"); err == nil {
		t.Error("expected error for unsupported generator")
	}
}
