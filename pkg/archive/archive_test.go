package archive_test

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"

	"github.com/o3de-mps/mpsexport/pkg/archive"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

func makeLayout(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "MPSGamePackage")
	files := map[string]string{
		"MPS.GameLauncher":     "binary",
		"launch_client.cfg":    "connect",
		"Cache/pc/game_pc.pak": "pak",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func tarNames(t *testing.T, r io.Reader) []string {
	t.Helper()
	var names []string
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if h.Typeflag == tar.TypeReg {
			names = append(names, h.Name)
		}
	}
	sort.Strings(names)
	return names
}

func TestArchive_Formats(t *testing.T) {
	want := "Cache/pc/game_pc.pak,MPS.GameLauncher,launch_client.cfg"

	tests := []struct {
		format types.ArchiveFormat
		names  func(t *testing.T, f *os.File) []string
	}{
		{types.ArchiveZip, func(t *testing.T, f *os.File) []string {
			info, _ := f.Stat()
			zr, err := zip.NewReader(f, info.Size())
			if err != nil {
				t.Fatal(err)
			}
			var names []string
			for _, zf := range zr.File {
				if !strings.HasSuffix(zf.Name, "/") {
					names = append(names, zf.Name)
				}
			}
			sort.Strings(names)
			return names
		}},
		{types.ArchiveGzip, func(t *testing.T, f *os.File) []string {
			gr, err := gzip.NewReader(f)
			if err != nil {
				t.Fatal(err)
			}
			return tarNames(t, gr)
		}},
		{types.ArchiveBzip2, func(t *testing.T, f *os.File) []string {
			br, err := bzip2.NewReader(f, nil)
			if err != nil {
				t.Fatal(err)
			}
			return tarNames(t, br)
		}},
		{types.ArchiveXz, func(t *testing.T, f *os.File) []string {
			xr, err := xz.NewReader(f)
			if err != nil {
				t.Fatal(err)
			}
			return tarNames(t, xr)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := makeLayout(t)
			path, err := archive.NewArchiver(nil).Archive(context.Background(), dir, tt.format)
			if err != nil {
				t.Fatalf("Archive() error = %v", err)
			}
			if path != dir+tt.format.Extension() {
				t.Errorf("archive path = %s", path)
			}

			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			if got := strings.Join(tt.names(t, f), ","); got != want {
				t.Errorf("archive entries = %s, want %s", got, want)
			}

			if err := archive.VerifyChecksum(path); err != nil {
				t.Errorf("VerifyChecksum() error = %v", err)
			}
			if _, err := os.Stat(path + ".partial"); !os.IsNotExist(err) {
				t.Error("partial archive left behind")
			}
		})
	}
}

func TestArchive_Unsupported(t *testing.T) {
	_, err := archive.NewArchiver(nil).Archive(context.Background(), t.TempDir(), types.ArchiveNone)
	if !errors.Is(err, archive.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestArchive_MissingSourceLeavesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	if _, err := archive.NewArchiver(nil).Archive(context.Background(), dir, types.ArchiveZip); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := os.Stat(dir + ".zip"); !os.IsNotExist(err) {
		t.Error("no archive should be produced")
	}
	if _, err := os.Stat(dir + ".zip.partial"); !os.IsNotExist(err) {
		t.Error("partial archive left behind")
	}
}

func TestVerifyChecksum_DetectsTampering(t *testing.T) {
	dir := makeLayout(t)
	path, err := archive.NewArchiver(nil).Archive(context.Background(), dir, types.ArchiveGzip)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := archive.VerifyChecksum(path); err == nil {
		t.Error("expected checksum mismatch")
	}
}

func TestArchive_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := archive.NewArchiver(nil).Archive(ctx, makeLayout(t), types.ArchiveZip); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestArchive_KeepsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on Windows")
	}
	layout := makeLayout(t)
	if err := os.WriteFile(filepath.Join(layout, "libfoo.so.1"), []byte("elf"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("libfoo.so.1", filepath.Join(layout, "libfoo.so")); err != nil {
		t.Fatal(err)
	}
	a := archive.NewArchiver(nil)

	t.Run("gzip", func(t *testing.T) {
		path, err := a.Archive(context.Background(), layout, types.ArchiveGzip)
		if err != nil {
			t.Fatal(err)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		gz, err := gzip.NewReader(f)
		if err != nil {
			t.Fatal(err)
		}
		tr := tar.NewReader(gz)
		for {
			h, err := tr.Next()
			if err == io.EOF {
				t.Fatal("libfoo.so missing from archive")
			}
			if err != nil {
				t.Fatal(err)
			}
			if h.Name != "libfoo.so" {
				continue
			}
			if h.Typeflag != tar.TypeSymlink || h.Linkname != "libfoo.so.1" {
				t.Errorf("libfoo.so entry = type %c -> %q, want symlink to libfoo.so.1", h.Typeflag, h.Linkname)
			}
			return
		}
	})

	t.Run("zip", func(t *testing.T) {
		path, err := a.Archive(context.Background(), layout, types.ArchiveZip)
		if err != nil {
			t.Fatal(err)
		}
		zr, err := zip.OpenReader(path)
		if err != nil {
			t.Fatal(err)
		}
		defer zr.Close()
		for _, zf := range zr.File {
			if zf.Name != "libfoo.so" {
				continue
			}
			if zf.Mode()&os.ModeSymlink == 0 {
				t.Errorf("libfoo.so mode = %v, want a symlink", zf.Mode())
			}
			rc, err := zf.Open()
			if err != nil {
				t.Fatal(err)
			}
			target, _ := io.ReadAll(rc)
			rc.Close()
			if string(target) != "libfoo.so.1" {
				t.Errorf("libfoo.so target = %q", target)
			}
			return
		}
		t.Fatal("libfoo.so missing from archive")
	})
}
