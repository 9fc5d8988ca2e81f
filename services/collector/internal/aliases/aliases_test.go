package aliases

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndResolve(t *testing.T) {
	path := writeFile(t, `
sensors:
  "a4:c1:38:00:11:22": kitchen
  "A4:C1:38:33:44:55": garage
ignore:
  - "A4:C1:38:99:99:99"
`)
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("len = %d", table.Len())
	}

	if name, ok := table.Resolve("A4:C1:38:00:11:22"); !ok || name != "kitchen" {
		t.Fatalf("kitchen = %q %v", name, ok)
	}
	if name, ok := table.Resolve("11:22:33:44:55:66"); !ok || name != "11:22:33:44:55:66" {
		t.Fatalf("passthrough = %q %v", name, ok)
	}
	if _, ok := table.Resolve("a4:c1:38:99:99:99"); ok {
		t.Fatal("ignored address was kept")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if name, ok := table.Resolve("X"); !ok || name != "X" {
		t.Fatalf("zero table = %q %v", name, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
	if _, err := Load(writeFile(t, "sensors: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := Load(writeFile(t, "sensors:\n  AA: \"  \"\n")); err == nil {
		t.Fatal("expected empty alias error")
	}
}
