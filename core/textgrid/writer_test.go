package textgrid

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSerialize_Canonical(t *testing.T) {
	got := string(Serialize(sampleDocument()))
	if got != sampleTextGrid {
		t.Errorf("Serialize() mismatch\ngot:\n%s\nwant:\n%s", got, sampleTextGrid)
	}
}

func TestSerialize_NoTiers(t *testing.T) {
	got := string(Serialize(&Document{MinTime: 0, MaxTime: 1.5}))
	want := "File type = \"ooTextFile\"\nObject class = \"TextGrid\"\n\nxmin = 0\nxmax = 1.5\ntiers? <absent>\n"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
	if strings.Contains(got, "item []") {
		t.Error("empty document must not contain an item section")
	}
}

func TestSerialize_EscapesQuotes(t *testing.T) {
	doc := sampleDocument()
	doc.Items[0].Intervals[0].Text = `a "b"`
	out := string(Serialize(doc))
	if !strings.Contains(out, `text = "a ""b"""`) {
		t.Errorf("quotes not escaped:\n%s", out)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"sample", sampleDocument()},
		{"empty", &Document{MinTime: 0, MaxTime: 0}},
		{
			name: "awkward floats",
			doc: &Document{
				MinTime: 0,
				MaxTime: 3.0000000000000004,
				Items: []Tier{{
					Name: "phones", MinTime: 0, MaxTime: 3.0000000000000004,
					Intervals: []Interval{
						{MinTime: 0, MaxTime: 0.1 + 0.2, Text: "a"},
						{MinTime: 0.1 + 0.2, MaxTime: 1.0 / 3.0, Text: ""},
						{MinTime: 1.0 / 3.0, MaxTime: 3.0000000000000004, Text: `q"q`},
					},
				}},
			},
		},
		{
			name: "unicode labels",
			doc: &Document{
				MinTime: 0, MaxTime: 1,
				Items: []Tier{{
					Name: "詞", MinTime: 0, MaxTime: 1,
					Intervals: []Interval{{MinTime: 0, MaxTime: 1, Text: "香港"}},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Serialize(tt.doc)
			parsed, err := Parse(first)
			if err != nil {
				t.Fatalf("Parse(Serialize(d)) failed: %v", err)
			}
			want := tt.doc
			if want.Items == nil {
				want = &Document{MinTime: want.MinTime, MaxTime: want.MaxTime}
			}
			if len(parsed.Items) == 0 {
				parsed.Items = nil
			}
			if !reflect.DeepEqual(parsed, want) {
				t.Errorf("round trip changed values:\ngot  %+v\nwant %+v", parsed, want)
			}
			if second := Serialize(parsed); string(second) != string(first) {
				t.Errorf("Serialize(Parse(Serialize(d))) != Serialize(d)")
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.TextGrid")

	if err := WriteFile(path, Serialize(sampleDocument())); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(data) != sampleTextGrid {
		t.Errorf("file content mismatch")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestWriteFile_RenameError(t *testing.T) {
	orig := osRename
	defer func() { osRename = orig }()
	osRename = func(string, string) error { return errors.New("rename failed") }

	dir := t.TempDir()
	err := WriteFile(filepath.Join(dir, "out.TextGrid"), Serialize(sampleDocument()))
	if err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestWriteFile_MissingDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "nope", "out.TextGrid"), Serialize(sampleDocument()))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
