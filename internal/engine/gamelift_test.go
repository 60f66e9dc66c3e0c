package engine

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o3de-mps/mpsexport/pkg/toolchain"
)

func TestBuildGameLiftServer_CodeAndAssets(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	gomock.InOrder(
		f.gems.EXPECT().EnableGem(gomock.Any(), f.project, GameLiftGem).Return(nil),
		f.gems.EXPECT().EnableGem(gomock.Any(), f.project, FeatureGem).Return(nil),
	)

	err := f.exporter(t).BuildGameLiftServer(context.Background(), GameLiftConfig{
		ProjectPath: f.project,
		Code:        true,
		Assets:      true,
		Generator:   "Visual Studio 16",
	})
	require.NoError(t, err)

	build := filepath.Join(f.project, "build", toolchain.PlatformDir(runtime.GOOS))
	mono := build + "_mono"
	assert.Equal(t, [][]string{
		{"cmake", "-B", build, "-S", f.project, "-G", "Visual Studio 16"},
		{"cmake", "--build", build, "--target", "MPS.ServerLauncher", "AssetBundler", "--config", "profile", "--", "/m"},
		{"cmake", "-B", mono, "-S", f.project, "-G", "Visual Studio 16",
			"-DALLOW_SETTINGS_REGISTRY_DEVELOPMENT_OVERRIDES=0", "-DLY_MONOLITHIC_GAME=1"},
		{"cmake", "--build", mono, "--target", "MPS.ServerLauncher", "--config", "profile", "--", "/m"},
		{"cmake", "--build", build, "--target", "MPS.Assets", "--config", "profile", "--", "/m"},
	}, f.runner.Commands())
	assert.DirExists(t, mono)
}

func TestBuildGameLiftServer_AssetsOnlyLeavesGemsAlone(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)

	err := f.exporter(t).BuildGameLiftServer(context.Background(), GameLiftConfig{
		ProjectPath: f.project,
		Assets:      true,
		Generator:   "Ninja",
	})
	require.NoError(t, err)

	cmds := f.runner.Commands()
	require.Len(t, cmds, 1)
	assert.NotContains(t, cmds[0], "/m")
	assert.Contains(t, cmds[0], "MPS.Assets")
}

func TestBuildGameLiftServer_StopsAtFirstFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)
	f.runner.FailOn("AssetBundler --config", 1, "link error")

	f.gems.EXPECT().EnableGem(gomock.Any(), f.project, gomock.Any()).Return(nil).Times(2)

	err := f.exporter(t).BuildGameLiftServer(context.Background(), GameLiftConfig{
		ProjectPath: f.project,
		Code:        true,
		Assets:      true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExternalTool))
	assert.Len(t, f.runner.Commands(), 2)
	assert.Empty(t, f.runner.CommandsContaining("_mono"))
}

func TestBuildGameLiftServer_Preconditions(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, ctrl)
	e := f.exporter(t)

	err := e.BuildGameLiftServer(context.Background(), GameLiftConfig{ProjectPath: f.project})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecondition))

	err = e.BuildGameLiftServer(context.Background(), GameLiftConfig{ProjectPath: f.project, Code: true, Generator: "Borland Makefiles"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecondition))

	f.gems.EXPECT().EnableGem(gomock.Any(), f.project, GameLiftGem).Return(errors.New("unknown gem"))
	err = e.BuildGameLiftServer(context.Background(), GameLiftConfig{ProjectPath: f.project, Code: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), GameLiftGem)
	assert.Empty(t, f.runner.Commands())
}
