package cas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/zeebo/blake3"
)

func hashToHex(b []byte) string {
	return hex.EncodeToString(b)
}

func TestSum(t *testing.T) {
	data := []byte("File type = \"ooTextFile\"\n")
	got := Sum(data)

	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	if got.SHA256 != hashToHex(s[:]) {
		t.Errorf("SHA256 = %s, want %s", got.SHA256, hashToHex(s[:]))
	}
	if got.BLAKE3 != hashToHex(b[:]) {
		t.Errorf("BLAKE3 = %s, want %s", got.BLAKE3, hashToHex(b[:]))
	}
	if got.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", got.Size, len(data))
	}
}

func TestSum_Empty(t *testing.T) {
	// Well-known digests of the empty input.
	got := Sum(nil)
	if got.SHA256 != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("SHA256(empty) = %s", got.SHA256)
	}
	if got.BLAKE3 != "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262" {
		t.Errorf("BLAKE3(empty) = %s", got.BLAKE3)
	}
}

func TestSumReader(t *testing.T) {
	data := bytes.Repeat([]byte("intervals [1]:\n"), 1000)
	got, err := SumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SumReader failed: %v", err)
	}
	if want := Sum(data); got != want {
		t.Errorf("SumReader() = %+v, want %+v", got, want)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestSumReader_Error(t *testing.T) {
	if _, err := SumReader(failingReader{}); err == nil {
		t.Error("expected error")
	}
}

func TestIsValidHash(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{Sum([]byte("x")).SHA256, true},
		{"", false},
		{"ABCDEF", false},
		{"g3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", false},
	}
	for _, tt := range tests {
		if got := isValidHash(tt.in); got != tt.want {
			t.Errorf("isValidHash(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
