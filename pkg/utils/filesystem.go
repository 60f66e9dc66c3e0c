// Package utils provides path matching and file copying helpers
package utils

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Exists checks if a path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDirectory checks if a path is a directory
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile checks if a path is a regular file
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CopyFile copies a file from src to dst, creating parent directories and
// keeping the source permissions.
func CopyFile(src, dst string) error {
	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sourceInfo.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", src)
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, sourceInfo.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	if err := destFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, sourceInfo.Mode().Perm())
}

// CopyFileToDir copies src into dir keeping its base name and returns the
// destination path.
func CopyFileToDir(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))
	return dst, CopyFile(src, dst)
}

// CopyOptions filters a CopyTree. Paths handed to the matchers are relative
// to the source root and slash separated. A nil Include copies everything;
// Exclude always wins over Include.
type CopyOptions struct {
	Include *PatternMatcher
	Exclude *ExclusionMatcher
}

// CopyTree copies the regular files and symlinks under src into dst,
// recreating the directory structure, and returns the copied entries
// relative to src in lexical order. Symlinks are recreated, not followed, so
// versioned libraries (libX.so -> libX.so.1) keep their layout. Other special
// files are skipped.
func CopyTree(src, dst string, opts CopyOptions) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("copy tree %s: not a directory", src)
	}

	var copied []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		slashRel := filepath.ToSlash(rel)

		if opts.Exclude.IsExcluded(slashRel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		isLink := d.Type()&fs.ModeSymlink != 0
		if !isLink && !d.Type().IsRegular() {
			return nil
		}
		if !opts.Include.Empty() && !opts.Include.Match(slashRel) {
			return nil
		}

		if isLink {
			err = CopySymlink(src, path, filepath.Join(dst, rel))
		} else {
			err = CopyFile(path, filepath.Join(dst, rel))
		}
		if err != nil {
			return fmt.Errorf("copying %s: %w", slashRel, err)
		}
		copied = append(copied, slashRel)
		return nil
	})
	if err != nil {
		return copied, err
	}
	sort.Strings(copied)
	return copied, nil
}

// CopySymlink recreates the symlink at link as dst. Absolute targets inside
// root are rewritten relative to the link so the copy does not point back
// into the source tree.
func CopySymlink(root, link, dst string) error {
	target, err := os.Readlink(link)
	if err != nil {
		return err
	}
	if filepath.IsAbs(target) {
		if rel, err := filepath.Rel(root, target); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			if target, err = filepath.Rel(filepath.Dir(link), filepath.Join(root, rel)); err != nil {
				return err
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(target, dst)
}

// GlobFiles returns the regular files directly inside dir whose names match
// any pattern, in lexical order. Symlinks to regular files count.
func GlobFiles(dir string, patterns []string) ([]string, error) {
	matcher, err := NewPatternMatcher(patterns)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !matcher.Match(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if e.Type().IsRegular() || IsFile(path) {
			files = append(files, path)
		}
	}
	return files, nil
}
