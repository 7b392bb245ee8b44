package extract

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format is a supported archive container.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatTarGzip
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "tar.gz"
	default:
		return "unknown"
	}
}

var (
	// ErrUnsafePath is returned for an entry that would land outside the
	// destination directory.
	ErrUnsafePath = errors.New("entry escapes destination")

	// ErrEntryTooLarge is returned for an entry above the size limit.
	ErrEntryTooLarge = errors.New("entry exceeds size limit")

	// ErrUnknownFormat is returned when the archive is neither zip nor tar.
	ErrUnknownFormat = errors.New("unrecognized archive format")
)

// DetectFormat sniffs the container format from the leading bytes of path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, []byte("PK\x03\x04")), bytes.HasPrefix(head, []byte("PK\x05\x06")):
		return FormatZip, nil
	case bytes.HasPrefix(head, []byte{0x1f, 0x8b}):
		return FormatTarGzip, nil
	case len(head) >= 262 && string(head[257:262]) == "ustar":
		return FormatTar, nil
	default:
		return FormatUnknown, ErrUnknownFormat
	}
}

// Unpack fully decompresses the archive at src into dest, which must exist.
// Only regular files and directories are written; links are skipped.
func Unpack(ctx context.Context, src, dest string, maxEntrySize int64) error {
	format, err := DetectFormat(src)
	if err != nil {
		return err
	}

	switch format {
	case FormatZip:
		return unpackZip(ctx, src, dest, maxEntrySize)
	default:
		return unpackTar(ctx, src, dest, format == FormatTarGzip, maxEntrySize)
	}
}

func unpackZip(ctx context.Context, src, dest string, maxEntrySize int64) error {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		if zr != nil {
			zr.Close()
		}
		return fmt.Errorf("open zip: %w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode.IsRegular():
			if maxEntrySize > 0 && f.UncompressedSize64 > uint64(maxEntrySize) {
				return fmt.Errorf("%s: %w", f.Name, ErrEntryTooLarge)
			}
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			err = writeFile(target, rc, maxEntrySize)
			rc.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	return nil
}

func unpackTar(ctx context.Context, src, dest string, gzipped bool, maxEntrySize int64) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	var r io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if maxEntrySize > 0 && hdr.Size > maxEntrySize {
				return fmt.Errorf("%s: %w", hdr.Name, ErrEntryTooLarge)
			}
			if err := writeFile(target, tr, maxEntrySize); err != nil {
				return fmt.Errorf("%s: %w", hdr.Name, err)
			}
		}
	}
}

// safeJoin resolves name under dest, rejecting absolute paths and any
// name that climbs out of dest.
func safeJoin(dest, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%s: %w", name, ErrUnsafePath)
	}
	target := filepath.Join(dest, clean)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrUnsafePath)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, limit int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	// Headers can lie about sizes; cap what is actually copied.
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if limit > 0 && n > limit {
		return ErrEntryTooLarge
	}
	return nil
}

// ListFiles returns every regular file under dir, sorted lexicographically
// by path. Hidden entries and macOS resource-fork folders are ignored.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || name == "__MACOSX" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
