// Package testutil provides golden-file comparison shared across
// internal package tests.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Update controls whether golden files are written or compared.
// Usage: go test -update ./...
var Update = flag.Bool("update", false, "update golden files")

// CompareGolden compares got against testdata/<dir>/<name>.golden.
// With -update it writes got to that path instead of comparing.
func CompareGolden(t *testing.T, dir, name, got string) {
	t.Helper()

	path := filepath.Join("testdata", dir, name+".golden")

	if *Update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("failed to write golden file %s: %v", path, err)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v\nrun with -update to create it", path, err)
	}

	if diff := cmp.Diff(string(want), got); diff != "" {
		t.Errorf("golden mismatch for %s/%s (-want +got):\n%s", dir, name, diff)
	}
}
