// Package archive compresses an assembled layout directory into a single
// distributable file with a BLAKE3 checksum next to it.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/o3de-mps/mpsexport/pkg/logger"
	"github.com/o3de-mps/mpsexport/pkg/types"
)

// ChecksumExt is appended to the archive path for the checksum sidecar.
const ChecksumExt = ".b3"

// ErrUnsupportedFormat is returned for formats Archive cannot write.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Archiver writes layout archives.
type Archiver struct {
	logger logger.Logger
}

// NewArchiver creates an Archiver
func NewArchiver(log logger.Logger) *Archiver {
	return &Archiver{logger: logger.OrNop(log)}
}

// Archive compresses the contents of srcDir into <srcDir><ext>, with entries
// relative to srcDir, and writes <archive>.b3. It returns the archive path.
func (a *Archiver) Archive(ctx context.Context, srcDir string, format types.ArchiveFormat) (string, error) {
	if !format.Enabled() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	ext := format.Extension()
	if ext == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	srcDir = filepath.Clean(srcDir)
	dest := srcDir + ext
	tmp := dest + ".partial"

	a.logger.Info(fmt.Sprintf("Archiving %s", srcDir), logger.WithField("format", string(format)))

	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	hasher := blake3.New()
	w := io.MultiWriter(out, hasher)

	if format == types.ArchiveZip {
		err = writeZip(ctx, w, srcDir)
	} else {
		err = writeCompressedTar(ctx, w, srcDir, format)
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("archiving %s: %w", srcDir, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalizing archive: %w", err)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	sidecar := fmt.Sprintf("%s  %s\n", sum, filepath.Base(dest))
	if err := os.WriteFile(dest+ChecksumExt, []byte(sidecar), 0644); err != nil {
		return dest, fmt.Errorf("writing checksum: %w", err)
	}

	a.logger.Info(fmt.Sprintf("Created archive %s", dest), logger.WithField("blake3", sum))
	return dest, nil
}

// VerifyChecksum recomputes the BLAKE3 sum of archivePath and compares it
// with the sidecar.
func VerifyChecksum(archivePath string) error {
	data, err := os.ReadFile(archivePath + ChecksumExt)
	if err != nil {
		return err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return fmt.Errorf("empty checksum file for %s", archivePath)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()
	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return err
	}
	if got := hex.EncodeToString(hasher.Sum(nil)); got != fields[0] {
		return fmt.Errorf("checksum mismatch for %s: got %s, want %s", archivePath, got, fields[0])
	}
	return nil
}

type fileVisitor func(rel string, path string, info fs.FileInfo) error

// walk visits the directories, regular files and symlinks under srcDir in
// lexical order so archives are reproducible. Symlinks are not followed.
func walk(ctx context.Context, srcDir string, visit fileVisitor) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil || rel == "." {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return visit(filepath.ToSlash(rel), path, info)
	})
}

func writeZip(ctx context.Context, w io.Writer, srcDir string) error {
	zw := zip.NewWriter(w)
	err := walk(ctx, srcDir, func(rel, path string, info fs.FileInfo) error {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = rel
		if info.IsDir() {
			header.Name += "/"
			_, err := zw.CreateHeader(header)
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			// Zip stores a symlink as its target text with the link mode bits.
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			header.Method = zip.Store
			entry, err := zw.CreateHeader(header)
			if err != nil {
				return err
			}
			_, err = io.WriteString(entry, target)
			return err
		}
		header.Method = zip.Deflate
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		return copyFileTo(entry, path)
	})
	if closeErr := zw.Close(); err == nil {
		err = closeErr
	}
	return err
}

func writeCompressedTar(ctx context.Context, w io.Writer, srcDir string, format types.ArchiveFormat) error {
	cw, err := compressor(w, format)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)
	err = walk(ctx, srcDir, func(rel, path string, info fs.FileInfo) error {
		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			link = target
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = rel
		if info.IsDir() {
			header.Name += "/"
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg {
			return nil
		}
		return copyFileTo(tw, path)
	})
	if closeErr := tw.Close(); err == nil {
		err = closeErr
	}
	if closeErr := cw.Close(); err == nil {
		err = closeErr
	}
	return err
}

func compressor(w io.Writer, format types.ArchiveFormat) (io.WriteCloser, error) {
	switch format {
	case types.ArchiveGzip:
		return gzip.NewWriter(w), nil
	case types.ArchiveBzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	case types.ArchiveXz:
		return xz.NewWriter(w)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func copyFileTo(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
