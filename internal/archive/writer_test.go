package archive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
)

func writeOutputDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"b.TextGrid":        "bbb",
		"a.TextGrid":        "aa",
		"manifest.json":     "{}",
		"nested/x.TextGrid": "skipped",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestPack_RoundTrip(t *testing.T) {
	src := writeOutputDir(t)
	for _, ext := range []string{".tar.gz", ".tar.xz", ".tar"} {
		t.Run(ext, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "packed", "out"+ext)
			if err := Pack(src, dst, "out"); err != nil {
				t.Fatalf("Pack failed: %v", err)
			}

			got, err := ReadMatching(dst, "")
			if err != nil {
				t.Fatalf("ReadMatching failed: %v", err)
			}
			wantPaths := []string{"out/a.TextGrid", "out/b.TextGrid", "out/manifest.json"}
			if len(got) != len(wantPaths) {
				t.Fatalf("got %d entries, want %d: %+v", len(got), len(wantPaths), got)
			}
			for i, p := range wantPaths {
				if got[i].Path != p {
					t.Errorf("entry %d = %q, want %q", i, got[i].Path, p)
				}
			}
			if string(got[1].Data) != "bbb" {
				t.Errorf("b.TextGrid = %q", got[1].Data)
			}
		})
	}
}

func TestPack_Reproducible(t *testing.T) {
	src := writeOutputDir(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "one.tar.gz")
	second := filepath.Join(dir, "two.tar.gz")
	if err := Pack(src, first, "out"); err != nil {
		t.Fatal(err)
	}
	if err := Pack(src, second, "out"); err != nil {
		t.Fatal(err)
	}
	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !bytes.Equal(a, b) {
		t.Error("packing the same directory twice gave different archives")
	}
}

func TestPack_NoBaseDir(t *testing.T) {
	src := writeOutputDir(t)
	dst := filepath.Join(t.TempDir(), "flat.tar")
	if err := Pack(src, dst, ""); err != nil {
		t.Fatal(err)
	}
	entries, err := ReadMatching(dst, "")
	if err != nil {
		t.Fatalf("ReadMatching failed: %v", err)
	}
	var data []byte
	for _, e := range entries {
		if e.Path == "a.TextGrid" {
			data = e.Data
		}
	}
	if string(data) != "aa" {
		t.Errorf("a.TextGrid = %q", data)
	}
}

func TestPack_Errors(t *testing.T) {
	src := writeOutputDir(t)
	dir := t.TempDir()

	if err := Pack(src, filepath.Join(dir, "out.zip"), "out"); !errors.Is(err, cserrors.ErrUnsupported) {
		t.Errorf("zip: err = %v, want ErrUnsupported", err)
	}
	if err := Pack(filepath.Join(dir, "missing"), filepath.Join(dir, "out.tar.gz"), "out"); err == nil {
		t.Error("missing source: expected error")
	}
}

func TestPack_RenameError(t *testing.T) {
	src := writeOutputDir(t)
	dir := t.TempDir()

	old := osRename
	osRename = func(string, string) error { return errors.New("rename failed") }
	defer func() { osRename = old }()

	if err := Pack(src, filepath.Join(dir, "out.tar.gz"), "out"); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %v", entries)
	}
}
