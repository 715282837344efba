package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PD_CACHE_DIR", dir)

	out, _, err := runCommand(t, "cache", "dir")
	if err != nil {
		t.Fatalf("cache dir: %v", err)
	}
	if !strings.Contains(out, dir) {
		t.Fatalf("output %q does not contain %q", out, dir)
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PD_CACHE_DIR", dir)

	stale := filepath.Join(dir, "groups_abcdef123456_alice.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCommand(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "Cache cleared") {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale cache entry should be removed, stat err = %v", err)
	}
}
