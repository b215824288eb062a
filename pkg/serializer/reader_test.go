package serializer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"config.yaml", FormatYAML},
		{"CONFIG.YML", FormatYAML},
		{"summary.json", FormatJSON},
		{"out.txt", FormatTable},
		{"https://example.com/index.yaml?ref=main", FormatYAML},
		{"noext", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := FormatFromPath(tt.path); got != tt.want {
				t.Errorf("FormatFromPath(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"relative file", "catalog/index.yaml", "runtimes/17.3.yaml", "catalog/runtimes/17.3.yaml"},
		{"absolute file", "catalog/index.yaml", "/tmp/x.yaml", "/tmp/x.yaml"},
		{"relative url", "https://example.com/c/index.yaml", "rt/16.4.json", "https://example.com/c/rt/16.4.json"},
		{"absolute url", "catalog/index.yaml", "https://example.com/a.json", "https://example.com/a.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLocation(tt.base, tt.ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ResolveLocation("a", ""); err == nil {
		t.Error("expected error for empty reference")
	}
}

func TestNewReader_RejectsTable(t *testing.T) {
	if _, err := NewReader(FormatTable, strings.NewReader("")); err == nil {
		t.Error("expected error for table format")
	}
	if _, err := NewReader(Format("bogus"), strings.NewReader("")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("name: local\nvalue: 9\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromFile[testConfig](path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if cfg.Name != "local" || cfg.Value != 9 {
		t.Errorf("unexpected %+v", cfg)
	}

	if _, err := FromFile[testConfig](filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromFileWithContext_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cfg.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"name":"remote","value":2}`))
	}))
	defer srv.Close()

	cfg, err := FromFileWithContext[testConfig](context.Background(), srv.URL+"/cfg.json")
	if err != nil {
		t.Fatalf("FromFileWithContext failed: %v", err)
	}
	if cfg.Name != "remote" {
		t.Errorf("unexpected %+v", cfg)
	}

	if _, err := FromFileWithContext[testConfig](context.Background(), srv.URL+"/nope.json"); err == nil {
		t.Error("expected error for 404")
	}
}
