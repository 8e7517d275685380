// Package runner converts batches of TextGrid files with a shared scheme
// on a bounded worker pool.
package runner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
	"github.com/FocuswithJustin/changescheme/internal/archive"
	"github.com/FocuswithJustin/changescheme/internal/validation"
)

// DefaultExt is the file extension converted when none is given.
const DefaultExt = ".TextGrid"

// Source is one input file. Data is set for archive members and nil for
// files read from disk.
type Source struct {
	Name string // output file name
	Path string // where the input came from, used in errors
	Data []byte
}

func (s Source) read() ([]byte, error) {
	if s.Data != nil {
		return s.Data, nil
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, cserrors.NewIO("stat", s.Path, err)
	}
	if err := validation.CheckSize(s.Path, info.Size()); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, cserrors.NewIO("read", s.Path, err)
	}
	return data, nil
}

// ListDir returns the files directly inside dir whose names end in ext,
// sorted by name. Symlinks to regular files are followed. Subdirectories,
// dangling links and hidden files are skipped.
func ListDir(dir, ext string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, cserrors.NewIO("list", dir, err)
	}
	var out []Source
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !archive.HasExt(name, ext) {
			continue
		}
		path := filepath.Join(dir, name)
		if !e.Type().IsRegular() {
			if e.Type()&fs.ModeSymlink == 0 {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		out = append(out, Source{Name: name, Path: path})
	}
	return out, nil
}

// ListArchive returns the members of a tar, tar.gz or tar.xz archive whose
// names end in ext, sorted by their path inside the archive. Unlike ListDir
// it matches members at any depth. Each member is named by its base name,
// so two members with the same base name fail the run.
func ListArchive(archivePath, ext string) ([]Source, error) {
	entries, err := archive.ReadMatching(archivePath, ext)
	if err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(entries))
	for _, e := range entries {
		out = append(out, Source{
			Name: e.Name,
			Path: archivePath + ":" + e.Path,
			Data: e.Data,
		})
	}
	return out, nil
}

// List resolves path to sources. A directory is listed with ListDir, a
// supported archive with ListArchive, and any other file is taken as a
// single input regardless of its extension.
func List(path, ext string) ([]Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, cserrors.NewIO("stat", path, err)
	}
	switch {
	case info.IsDir():
		return ListDir(path, ext)
	case archive.IsSupportedFormat(path):
		return ListArchive(path, ext)
	case info.Mode().IsRegular():
		return []Source{{Name: filepath.Base(path), Path: path}}, nil
	default:
		return nil, cserrors.NewUnsupported("input", fmt.Sprintf("%s is not a regular file or directory", path))
	}
}
