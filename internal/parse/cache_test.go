package parse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCacheReloadsOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.asm")
	writeFile(t, path, "First:\n")

	c := NewCache()
	res, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Symbols) != 1 || res.Symbols[0].Name != "First" {
		t.Fatalf("symbols = %v", res.Symbols)
	}

	// Same mtime and size must serve the cached result even if the bytes
	// changed behind our back.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	writeFile(t, path, "Other:\n")
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	res, err = c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Symbols[0].Name != "First" {
		t.Fatalf("cache missed on unchanged stat: %v", res.Symbols)
	}

	// Bumping the mtime invalidates.
	future := info.ModTime().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	res, err = c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Symbols[0].Name != "Other" {
		t.Fatalf("stale result after mtime change: %v", res.Symbols)
	}
}

func TestCacheOverlayWinsOverDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.asm")
	writeFile(t, path, "Disk:\n")

	c := NewCache()
	c.Overlay(path, "Editor:\n")

	res, err := c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Symbols[0].Name != "Editor" {
		t.Fatalf("overlay ignored: %v", res.Symbols)
	}

	text, err := c.Text(path)
	if err != nil || text != "Editor:\n" {
		t.Fatalf("Text = %q, %v", text, err)
	}

	c.DropOverlay(path)
	res, err = c.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Symbols[0].Name != "Disk" {
		t.Fatalf("disk contents not restored: %v", res.Symbols)
	}
}

func TestCacheLoadMissingFile(t *testing.T) {
	c := NewCache()
	if _, err := c.Load(filepath.Join(t.TempDir(), "nope.asm")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
