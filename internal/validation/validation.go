// Package validation checks user-supplied paths, output file names and
// input sizes before any file is opened or written.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Limits on inputs.
const (
	// MaxInputSize is the largest TextGrid accepted (64 MB). Archive members
	// are checked against it before they are decompressed into memory.
	MaxInputSize = 64 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrTooLarge         = errors.New("input too large")
)

// ValidateFilename checks that filename can be joined to an output
// directory without leaving it: no separators, no "." or "..", no control
// characters and no leading hyphen.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// ValidatePath checks a path given on the command line for length and
// control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// CheckSize returns ErrTooLarge if size exceeds MaxInputSize.
func CheckSize(name string, size int64) error {
	if size > MaxInputSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, name, size, MaxInputSize)
	}
	return nil
}
