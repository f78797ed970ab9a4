package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestList(t *testing.T) {
	t.Parallel()
	f := newFixture(t, [][2]string{{"clinvar", "GRCh37"}, {"clinvar", "GRCh38"}})
	data := []byte("0123456789")
	f.remote.publish("clinvar", "GRCh38", "20240101", data)

	if _, err := f.manager.Realize(context.Background(), "clinvar", "GRCh38"); err != nil {
		t.Fatal(err)
	}

	statuses, err := f.manager.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	grch37, grch38 := statuses[0], statuses[1]
	if grch37.Version != "GRCh37" || grch37.Downloaded || grch37.DateToken != "" {
		t.Fatalf("unexpected GRCh37 status: %+v", grch37)
	}
	if !grch38.Downloaded || grch38.DateToken != "20240101" || grch38.DataSize != int64(len(data)) {
		t.Fatalf("unexpected GRCh38 status: %+v", grch38)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t, [][2]string{{"clinvar", "GRCh38"}})
	f.remote.publish("clinvar", "GRCh38", "20240101", []byte("data"))
	ctx := context.Background()

	if _, err := f.manager.Check(ctx, "clinvar", "GRCh38"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before download, got %v", err)
	}

	res, err := f.manager.Realize(ctx, "clinvar", "GRCh38")
	if err != nil {
		t.Fatal(err)
	}
	check, err := f.manager.Check(ctx, "clinvar", "GRCh38")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !check.Valid || check.DateToken != "20240101" {
		t.Fatalf("unexpected check result: %+v", check)
	}

	if err := os.WriteFile(res.Files[0].Path, []byte("bitrot"), 0644); err != nil {
		t.Fatal(err)
	}
	check, err = f.manager.Check(ctx, "clinvar", "GRCh38")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Valid || check.Actual == check.Expected {
		t.Fatalf("expected mismatch: %+v", check)
	}
	if hits := f.remote.count("/clinvar/GRCh38/clinvar.vcf.gz.md5"); hits != 2 {
		t.Fatalf("check must not use the network, manifest hits=%d", hits)
	}
}

func TestResolvePointer(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dated := filepath.Join(root, "20240101")
	if err := os.MkdirAll(dated, 0755); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dated, "clinvar.vcf.gz")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	relLink := filepath.Join(root, "relative")
	if err := os.Symlink(filepath.Join("20240101", "clinvar.vcf.gz"), relLink); err != nil {
		t.Fatal(err)
	}
	absLink := filepath.Join(root, "absolute")
	if err := os.Symlink(target, absLink); err != nil {
		t.Fatal(err)
	}

	for _, link := range []string{relLink, absLink} {
		token, ok := resolvePointer(link)
		if !ok || token != "20240101" {
			t.Fatalf("resolvePointer(%s) = %q, %v", link, token, ok)
		}
	}
	if _, ok := resolvePointer(target); ok {
		t.Fatal("regular file is not a pointer")
	}
}

func TestEnsurePointerReplacesDanglingLink(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	target := filepath.Join(root, "20240101", "clinvar.vcf.gz")
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	pointer := filepath.Join(root, "clinvar.vcf.gz")
	if err := os.Symlink(filepath.Join("19990101", "clinvar.vcf.gz"), pointer); err != nil {
		t.Fatal(err)
	}

	linked, err := ensurePointer(context.Background(), target, pointer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !linked {
		t.Fatal("expected dangling pointer to be replaced")
	}
	if b, err := os.ReadFile(pointer); err != nil || string(b) != "x" {
		t.Fatalf("pointer does not resolve: %q %v", b, err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected no leftover temporary links, got %d entries", len(entries))
	}
}
