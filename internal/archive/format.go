package archive

import (
	"strings"
)

// Supported archive formats.
const (
	FormatTarGz   = "tar.gz"
	FormatTarXz   = "tar.xz"
	FormatTar     = "tar"
	FormatUnknown = "unknown"
)

// DetectFormat detects the archive format from the file extension.
func DetectFormat(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".tar.xz"), strings.HasSuffix(p, ".txz"):
		return FormatTarXz
	case strings.HasSuffix(p, ".tar.gz"), strings.HasSuffix(p, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(p, ".tar"):
		return FormatTar
	default:
		return FormatUnknown
	}
}

// IsSupportedFormat returns true if the file has a supported archive extension.
func IsSupportedFormat(path string) bool {
	return DetectFormat(path) != FormatUnknown
}

// TrimExt removes a known archive extension from a file name.
func TrimExt(filename string) string {
	lower := strings.ToLower(filename)
	for _, ext := range []string{".tar.xz", ".tar.gz", ".txz", ".tgz", ".tar"} {
		if strings.HasSuffix(lower, ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}
