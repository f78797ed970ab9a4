package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := c.Lookup("clinvar", "GRCh38")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(e.Data, "/clinvar.vcf.gz") {
		t.Fatalf("unexpected data url: %q", e.Data)
	}
	for _, u := range e.URLs() {
		if _, err := FileName(u); err != nil {
			t.Fatalf("bad url in default catalog: %v", err)
		}
	}
}

func TestLookupNotFound(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup("dbsnp", "GRCh38"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for database, got %v", err)
	}
	if _, err := c.Lookup("clinvar", "hg19"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for version, got %v", err)
	}
}

func TestEntriesSorted(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(`
zeta:
  v1: {data: "https://h/z1", index: "https://h/z1.tbi", manifest: "https://h/z1.md5"}
alpha:
  v2: {data: "https://h/a2", index: "https://h/a2.tbi", manifest: "https://h/a2.md5"}
  v1: {data: "https://h/a1", index: "https://h/a1.tbi", manifest: "https://h/a1.md5"}
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, e := range c.Entries() {
		got = append(got, e.Database+"/"+e.Version)
	}
	want := "alpha/v1,alpha/v2,zeta/v1"
	if strings.Join(got, ",") != want {
		t.Fatalf("order mismatch: got=%v want=%s", got, want)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ``},
		{"missing field", `db: {v1: {data: "https://h/a", index: "https://h/a.tbi"}}`},
		{"extra field", `db: {v1: {data: "https://h/a", index: "https://h/b", manifest: "https://h/c", size: "1"}}`},
		{"non string", `db: {v1: {data: 1, index: "https://h/b", manifest: "https://h/c"}}`},
		{"no file name", `db: {v1: {data: "https://h/", index: "https://h/b", manifest: "https://h/c"}}`},
		{"relative url", `db: {v1: {data: "a.vcf.gz", index: "https://h/b", manifest: "https://h/c"}}`},
		{"not yaml", `db: [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "databases.yaml")
	content := `gnomad: {"4.1": {data: "https://h/g.vcf.bgz", index: "https://h/g.vcf.bgz.tbi", manifest: "https://h/g.md5"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Lookup("gnomad", "4.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	name, err := FileName("https://ftp.ncbi.nlm.nih.gov/pub/clinvar/vcf_GRCh38/clinvar.vcf.gz.tbi?x=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "clinvar.vcf.gz.tbi" {
		t.Fatalf("name mismatch: got=%q", name)
	}
}
