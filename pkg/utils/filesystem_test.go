package utils_test

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/o3de-mps/mpsexport/pkg/utils"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCopyTree_ExcludeWins(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeTree(t, src, map[string]string{
		"P.GameLauncher":          "game",
		"P.ServerLauncher":        "server",
		"libCore.so":              "core",
		"Registry/game.setreg":    "{}",
		"Gems/AWSCore/gem.json":   "{}",
		"Gems/AWSCore/notes.txt":  "skip",
		"Obsolete/P.GameLauncher": "old",
	})

	copied, err := utils.CopyTree(src, dst, utils.CopyOptions{
		Include: utils.MustPatternMatcher("*.so", "*Launcher", "*.setreg", "*.json"),
		Exclude: mustExclude(t, "*.ServerLauncher", "Obsolete"),
	})
	if err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	want := []string{"Gems/AWSCore/gem.json", "P.GameLauncher", "Registry/game.setreg", "libCore.so"}
	if !reflect.DeepEqual(copied, want) {
		t.Errorf("copied = %v, want %v", copied, want)
	}
	if utils.Exists(filepath.Join(dst, "P.ServerLauncher")) {
		t.Error("excluded launcher was copied")
	}
	if utils.Exists(filepath.Join(dst, "Obsolete")) {
		t.Error("excluded directory was copied")
	}
	data, err := os.ReadFile(filepath.Join(dst, "Registry", "game.setreg"))
	if err != nil || string(data) != "{}" {
		t.Errorf("nested file not copied intact: %q, %v", data, err)
	}
}

func TestCopyTree_NoIncludeCopiesEverything(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a", "sub/b.txt": "b"})

	copied, err := utils.CopyTree(src, dst, utils.CopyOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(copied) != 2 {
		t.Errorf("copied %v", copied)
	}
}

func TestCopyTree_RecreatesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on Windows")
	}
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeTree(t, src, map[string]string{"lib/libfoo.so.1": "elf"})
	links := map[string]string{
		"lib/libfoo.so":    "libfoo.so.1",
		"lib/libfoo.so.v1": filepath.Join(src, "lib", "libfoo.so.1"),
		"P.ServerLauncher": "lib/libfoo.so.1",
	}
	for link, target := range links {
		if err := os.Symlink(target, filepath.Join(src, filepath.FromSlash(link))); err != nil {
			t.Fatal(err)
		}
	}

	copied, err := utils.CopyTree(src, dst, utils.CopyOptions{Exclude: mustExclude(t, "*.ServerLauncher")})
	if err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	want := []string{"lib/libfoo.so", "lib/libfoo.so.1", "lib/libfoo.so.v1"}
	if !reflect.DeepEqual(copied, want) {
		t.Errorf("copied = %v, want %v", copied, want)
	}
	for _, link := range []string{"libfoo.so", "libfoo.so.v1"} {
		path := filepath.Join(dst, "lib", link)
		target, err := os.Readlink(path)
		if err != nil {
			t.Errorf("%s is not a symlink: %v", link, err)
			continue
		}
		if target != "libfoo.so.1" {
			t.Errorf("%s -> %q, want a link relative to the copy", link, target)
		}
		if data, err := os.ReadFile(path); err != nil || string(data) != "elf" {
			t.Errorf("reading through %s = %q, %v", link, data, err)
		}
	}
	if _, err := os.Lstat(filepath.Join(dst, "P.ServerLauncher")); !os.IsNotExist(err) {
		t.Error("excluded symlink was copied")
	}
}

func TestCopyTree_MissingSource(t *testing.T) {
	if _, err := utils.CopyTree(filepath.Join(t.TempDir(), "nope"), t.TempDir(), utils.CopyOptions{}); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestCopyFile_KeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tool")
	if err := os.WriteFile(src, []byte("#!/bin/sh"), 0755); err != nil {
		t.Fatal(err)
	}
	dst, err := utils.CopyFileToDir(src, filepath.Join(dir, "out", "bin"))
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
	if !utils.IsFile(dst) || utils.IsDirectory(dst) {
		t.Error("destination should be a regular file")
	}
}

func TestGlobFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"launch_client.cfg": "",
		"launch_server.cfg": "",
		"project.json":      "{}",
		"cfg/nested.cfg":    "",
	})

	files, err := utils.GlobFiles(dir, []string{"launch_client.cfg", "*.json"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "launch_client.cfg"), filepath.Join(dir, "project.json")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("GlobFiles() = %v, want %v", files, want)
	}
}

func mustExclude(t *testing.T, patterns ...string) *utils.ExclusionMatcher {
	t.Helper()
	em, err := utils.NewExclusionMatcher(patterns)
	if err != nil {
		t.Fatal(err)
	}
	return em
}
