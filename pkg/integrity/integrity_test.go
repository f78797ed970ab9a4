package integrity

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"empty", nil, "d41d8cd98f00b204e9800998ecf8427e"},
		{"hello", []byte("hello world\n"), "6f5902ac237024bdd0c176cb93063dc4"},
		{"multi chunk", bytes.Repeat([]byte("a"), 3*chunkSize+17), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_"))
			if err := os.WriteFile(path, tt.content, 0644); err != nil {
				t.Fatal(err)
			}
			got, err := Digest(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 32 {
				t.Fatalf("expected 32 hex chars, got %q", got)
			}
			if tt.want != "" && got != tt.want {
				t.Fatalf("digest mismatch: got=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.vcf.gz")
	if err := os.WriteFile(path, []byte("##fileformat=VCFv4.1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sum, err := Digest(path)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := Verify(path, sum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected file to verify against its own digest")
	}

	ok, err = Verify(path, "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch against deadbeef")
	}

	ok, err = Verify(path, strings.ToUpper(sum))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected comparison to be case-sensitive")
	}
}

func TestVerifyMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Verify(filepath.Join(t.TempDir(), "missing"), "deadbeef")
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}
