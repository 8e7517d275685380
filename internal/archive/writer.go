package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ulikunitz/xz"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// epoch is the modification time written for every entry so packing the
// same files twice gives identical archives.
var epoch = time.Unix(0, 0).UTC()

// Pack writes the regular files directly inside srcDir into a tar archive
// at dstPath, under a top-level directory named baseDir. The compression is
// chosen from dstPath's extension. Entries are sorted by name and the
// archive is written to a temp file and renamed into place.
func Pack(srcDir, dstPath, baseDir string) error {
	format := DetectFormat(dstPath)
	if format == FormatUnknown {
		return cserrors.NewUnsupported("archive format", dstPath)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return cserrors.NewIO("read", srcDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	tempFile, err := os.CreateTemp(filepath.Dir(dstPath), ".pack-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if err := writeTar(tempFile, format, srcDir, baseDir, names); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := osRename(tempPath, dstPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename archive: %w", err)
	}
	return nil
}

func writeTar(w io.Writer, format, srcDir, baseDir string, names []string) error {
	var compressor io.WriteCloser
	switch format {
	case FormatTarGz:
		compressor = gzip.NewWriter(w)
	case FormatTarXz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
		compressor = xw
	}
	if compressor != nil {
		w = compressor
	}

	tw := tar.NewWriter(w)
	if baseDir != "" {
		if err := tw.WriteHeader(&tar.Header{
			Name:     baseDir + "/",
			Mode:     0755,
			Typeflag: tar.TypeDir,
			ModTime:  epoch,
		}); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := addFile(tw, filepath.Join(srcDir, name), entryName(baseDir, name)); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if compressor != nil {
		return compressor.Close()
	}
	return nil
}

func addFile(tw *tar.Writer, srcPath, name string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     info.Size(),
		Typeflag: tar.TypeReg,
		ModTime:  epoch,
	}); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

func entryName(baseDir, name string) string {
	if baseDir == "" {
		return name
	}
	return baseDir + "/" + name
}
