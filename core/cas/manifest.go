package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ManifestName is the file name written next to converted files.
const ManifestName = "manifest.json"

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// ErrInvalidHash is returned when a manifest entry carries a malformed digest.
var ErrInvalidHash = errors.New("invalid hash format")

// Entry describes one output file.
type Entry struct {
	Name string `json:"name"`
	HashResult
}

// Manifest lists the files written by one conversion run. Add is safe for
// concurrent use.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Scheme    string    `json:"scheme"`
	CreatedAt time.Time `json:"created_at"`
	Files     []Entry   `json:"files"`

	mu sync.Mutex
}

// NewManifest returns an empty manifest for a run.
func NewManifest(runID, scheme string) *Manifest {
	return &Manifest{
		RunID:     runID,
		Scheme:    scheme,
		CreatedAt: time.Now().UTC(),
		Files:     []Entry{},
	}
}

// Add hashes data and records it under name.
func (m *Manifest) Add(name string, data []byte) Entry {
	e := Entry{Name: name, HashResult: Sum(data)}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files = append(m.Files, e)
	return e
}

// WriteFile writes the manifest as indented JSON, sorted by file name.
// The file is written atomically using a temp file.
func (m *Manifest) WriteFile(path string) error {
	m.mu.Lock()
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Name < m.Files[j].Name })
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest: %w", err)
	}

	return nil
}

// ReadManifest loads a manifest written by WriteFile.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for _, e := range m.Files {
		if !isValidHash(e.SHA256) || !isValidHash(e.BLAKE3) {
			return nil, fmt.Errorf("%w: entry %q", ErrInvalidHash, e.Name)
		}
	}
	return &m, nil
}

// Mismatch is a manifest entry whose file on disk differs or is missing.
type Mismatch struct {
	Name   string
	Reason string
}

// Verify re-hashes every listed file under dir and returns the entries that
// no longer match.
func (m *Manifest) Verify(dir string) ([]Mismatch, error) {
	m.mu.Lock()
	files := append([]Entry(nil), m.Files...)
	m.mu.Unlock()

	var bad []Mismatch
	for _, e := range files {
		f, err := os.Open(filepath.Join(dir, e.Name))
		if errors.Is(err, os.ErrNotExist) {
			bad = append(bad, Mismatch{Name: e.Name, Reason: "missing"})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", e.Name, err)
		}
		got, err := SumReader(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		switch {
		case got.Size != e.Size:
			bad = append(bad, Mismatch{Name: e.Name, Reason: fmt.Sprintf("size %d, want %d", got.Size, e.Size)})
		case got.BLAKE3 != e.BLAKE3:
			bad = append(bad, Mismatch{Name: e.Name, Reason: "blake3 mismatch"})
		case got.SHA256 != e.SHA256:
			bad = append(bad, Mismatch{Name: e.Name, Reason: "sha256 mismatch"})
		}
	}
	return bad, nil
}
