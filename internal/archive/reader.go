// Package archive reads TextGrids from compressed tar archives and packs
// converted output into one. It supports tar, tar.gz and tar.xz.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/internal/validation"
)

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// NewReader creates a new archive reader for the given path.
// The compression is chosen from the extension.
func NewReader(archivePath string) (*Reader, error) {
	format := DetectFormat(archivePath)
	if format == FormatUnknown {
		return nil, cserrors.NewUnsupported("archive format", archivePath)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, cserrors.NewIO("open", archivePath, err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch format {
	case FormatTarXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case FormatTarGz:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		reader = gzr
		decompressor = gzr
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateArchive opens an archive and iterates through its entries.
func IterateArchive(archivePath string, visitor Visitor) error {
	r, err := NewReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// Entry is a regular file read from an archive.
type Entry struct {
	Name string // base name inside the archive
	Path string // full name inside the archive
	Data []byte
}

// ReadMatching returns every regular file, at any depth, whose base name has
// the given extension (compared case-insensitively), sorted by path. Hidden files
// such as macOS "._" resource forks are skipped.
func ReadMatching(archivePath, ext string) ([]Entry, error) {
	var out []Entry
	err := IterateArchive(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		base := path.Base(header.Name)
		if strings.HasPrefix(base, ".") || !HasExt(base, ext) {
			return false, nil
		}
		if err := validation.CheckSize(header.Name, header.Size); err != nil {
			return true, err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return true, fmt.Errorf("read %s: %w", header.Name, err)
		}
		out = append(out, Entry{Name: base, Path: header.Name, Data: data})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// HasExt reports whether name ends in ext, ignoring case. An empty ext
// matches every name.
func HasExt(name, ext string) bool {
	if ext == "" {
		return true
	}
	return len(name) > len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}
