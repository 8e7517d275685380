// Package errors provides the error taxonomy shared by the codec, the scheme
// loader and the resegmentation engine.
//
// Fatal conditions are returned as typed errors that unwrap to one of the
// sentinels below, so callers can decide with errors.Is whether to abort a
// batch or skip a file. Per-word problems (unknown words, scheme mismatches)
// are never errors; they are reported as events.
package errors

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for common cases
var (
	// ErrFormat indicates a malformed annotation file
	ErrFormat = errors.New("format error")
	// ErrSchemeConfig indicates a malformed scheme file or rule row
	ErrSchemeConfig = errors.New("scheme configuration error")
	// ErrAlignment indicates a word boundary with no matching phone boundary
	ErrAlignment = errors.New("alignment error")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// FormatError represents a fatal problem in an annotation file.
type FormatError struct {
	Path    string // File path, if known
	Line    int    // 1-based line number, 0 if not applicable
	Text    string // Offending line, trimmed
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		if loc != "" {
			loc += ":"
		}
		loc += "line " + strconv.Itoa(e.Line)
	}
	msg := e.Message
	if e.Text != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Text)
	}
	if loc != "" {
		return fmt.Sprintf("format error at %s: %s", loc, msg)
	}
	return fmt.Sprintf("format error: %s", msg)
}

func (e *FormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFormat
}

// Is reports ErrFormat even when an underlying error is wrapped.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// SchemeConfigError represents a malformed scheme definition.
type SchemeConfigError struct {
	Path    string // Scheme file path, if known
	Line    int    // 1-based line number, 0 if not applicable
	Word    string // Word whose row is malformed
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *SchemeConfigError) Error() string {
	prefix := "invalid scheme"
	if e.Path != "" {
		prefix += " " + e.Path
	}
	if e.Line > 0 {
		prefix += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Word != "" {
		return fmt.Sprintf("%s: word %q: %s", prefix, e.Word, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *SchemeConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSchemeConfig
}

// Is reports ErrSchemeConfig even when an underlying error is wrapped.
func (e *SchemeConfigError) Is(target error) bool {
	return target == ErrSchemeConfig
}

// AlignmentError is returned when the phone tier is exhausted before a
// phone interval ending at a word's end time is found.
type AlignmentError struct {
	Path      string  // File path, if known
	WordIndex int     // 0-based index into the word tier
	Word      string  // Text of the unaligned word
	MaxTime   float64 // End time that had no matching phone boundary
}

func (e *AlignmentError) Error() string {
	msg := fmt.Sprintf("no phone boundary at %v for word %d (%q)", e.MaxTime, e.WordIndex, e.Word)
	if e.Path != "" {
		return fmt.Sprintf("alignment error in %s: %s", e.Path, msg)
	}
	return "alignment error: " + msg
}

func (e *AlignmentError) Unwrap() error {
	return ErrAlignment
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NewFormat creates a FormatError for the given line.
func NewFormat(line int, text, message string) *FormatError {
	return &FormatError{
		Line:    line,
		Text:    text,
		Message: message,
	}
}

// NewSchemeConfig creates a SchemeConfigError
func NewSchemeConfig(word, message string) *SchemeConfigError {
	return &SchemeConfigError{
		Word:    word,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// IsFatal reports whether err is a defect of the input itself (a malformed
// file, an unalignable word or a bad scheme) rather than an I/O failure.
// Such errors fail a file no matter how often it is retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFormat) || errors.Is(err, ErrAlignment) || errors.Is(err, ErrSchemeConfig)
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
