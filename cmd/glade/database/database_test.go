package database

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glade/pkg/database"
)

type env struct {
	cfgPath string
	baseDir string
}

func newEnv(t *testing.T, data []byte) env {
	t.Helper()
	t.Setenv("TERMUX_VERSION", "")
	t.Setenv("GLADE_BASE_DIR", "")

	sum := md5.Sum(data)
	files := map[string][]byte{
		"/clinvar.vcf.gz":     data,
		"/clinvar.vcf.gz.tbi": []byte("index"),
		"/clinvar.vcf.gz.md5": fmt.Appendf(nil, "%s  clinvar_20240601.vcf.gz\n", hex.EncodeToString(sum[:])),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	catalogYAML := fmt.Sprintf(`clinvar:
  GRCh38:
    data: %[1]s/clinvar.vcf.gz
    index: %[1]s/clinvar.vcf.gz.tbi
    manifest: %[1]s/clinvar.vcf.gz.md5
`, srv.URL)
	if err := os.WriteFile(catalogPath, []byte(catalogYAML), 0644); err != nil {
		t.Fatal(err)
	}

	e := env{
		cfgPath: filepath.Join(dir, "settings.toml"),
		baseDir: filepath.Join(dir, "databases"),
	}
	settings := fmt.Sprintf("base_dir = %q\ncatalog = %q\ntimeout = \"30s\"\n", e.baseDir, catalogPath)
	if err := os.WriteFile(e.cfgPath, []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}
	return e
}

func run(t *testing.T, e env, args ...string) (string, error) {
	t.Helper()
	cmd := GetCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", e.cfgPath))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDownloadListCheckHistory(t *testing.T) {
	e := newEnv(t, []byte("variants"))

	out, err := run(t, e, "download", "--database", "clinvar", "--genome-version", "GRCh38")
	if err != nil {
		t.Fatalf("download failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Date:     20240601") {
		t.Errorf("summary missing date token:\n%s", out)
	}
	pointer := filepath.Join(e.baseDir, "clinvar", "GRCh38", "clinvar.vcf.gz")
	if got, err := os.ReadFile(pointer); err != nil || string(got) != "variants" {
		t.Fatalf("pointer content = %q, %v", got, err)
	}

	out, err = run(t, e, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "GRCh38: downloaded (20240601") {
		t.Errorf("list output missing status:\n%s", out)
	}

	out, err = run(t, e, "check", "--database", "clinvar", "--genome-version", "GRCh38")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok") {
		t.Errorf("check output:\n%s", out)
	}

	out, err = run(t, e, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "clinvar/GRCh38") || !strings.Contains(out, "downloaded") {
		t.Errorf("history output:\n%s", out)
	}
}

func TestCheckDetectsCorruption(t *testing.T) {
	e := newEnv(t, []byte("variants"))
	if _, err := run(t, e, "download", "--all"); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(e.baseDir, "clinvar", "GRCh38", "20240601", "clinvar.vcf.gz")
	if err := os.WriteFile(target, []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, e, "check", "--database", "clinvar", "--genome-version", "GRCh38")
	if !errors.Is(err, database.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestDownloadUnknownDatabase(t *testing.T) {
	e := newEnv(t, []byte("variants"))
	_, err := run(t, e, "download", "--database", "dbsnp", "--genome-version", "GRCh38")
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestValidateSelection(t *testing.T) {
	tests := []struct {
		name    string
		db, ver string
		all     bool
		pick    bool
		wantErr bool
	}{
		{"explicit", "clinvar", "GRCh38", false, false, false},
		{"all", "", "", true, false, false},
		{"pick", "", "", false, true, false},
		{"nothing", "", "", false, false, true},
		{"missing version", "clinvar", "", false, false, true},
		{"missing database", "", "GRCh38", false, false, true},
		{"all and explicit", "clinvar", "GRCh38", true, false, true},
		{"all and pick", "", "", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSelection(tt.db, tt.ver, tt.all, tt.pick)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSelection() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
