package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "sprites")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := writeManifest(t, root, "")

	got, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find = %v, %v", ok, err)
	}
	if got != want {
		t.Fatalf("Find = %q, want %q", got, want)
	}
}

func TestFindMiss(t *testing.T) {
	_, ok, err := Find(t.TempDir())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if ok {
		t.Fatal("found a manifest in an empty tree")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[project]
main_files = ["main.asm", "src/alt_main.asm"]

[asm]
rom_path = "base.sfc"
rom_size = 4194304
include_paths = ["src", "lib"]
defines = ["DEBUG=1", "FASTROM"]

[lint]
default_m_width = 2
warn_branch_outside_bank = false
label_prefixes = ["Oracle_", "Engine_"]

[log]
path = "z3dk.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir != dir {
		t.Fatalf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if got := cfg.MainFilePaths(); len(got) != 2 || got[0] != filepath.Join(dir, "main.asm") {
		t.Fatalf("MainFilePaths = %v", got)
	}
	if got := cfg.IncludePaths(); len(got) != 2 || got[1] != filepath.Join(dir, "lib") {
		t.Fatalf("IncludePaths = %v", got)
	}
	if cfg.Asm.ROMSize != 4194304 {
		t.Fatalf("ROMSize = %d", cfg.Asm.ROMSize)
	}
	if cfg.Lint.DefaultMWidth != 2 {
		t.Fatalf("DefaultMWidth = %d", cfg.Lint.DefaultMWidth)
	}
	// Unset lint defaults survive a partial [lint] table.
	if cfg.Lint.DefaultXWidth != 1 {
		t.Fatalf("DefaultXWidth = %d, want default 1", cfg.Lint.DefaultXWidth)
	}
	if cfg.Lint.BranchOutsideBankEnabled() {
		t.Fatal("warn_branch_outside_bank = false was ignored")
	}
	if !cfg.Lint.UnknownWidthEnabled() || !cfg.Lint.OrgCollisionEnabled() {
		t.Fatal("unset warnings must default to enabled")
	}
	if len(cfg.Lint.LabelPrefixes) != 2 || cfg.Lint.LabelPrefixes[0] != "Oracle_" {
		t.Fatalf("LabelPrefixes = %v", cfg.Lint.LabelPrefixes)
	}
	if cfg.Log.Path != "z3dk.log" {
		t.Fatalf("Log.Path = %q", cfg.Log.Path)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[asm\nrom_path=")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDiscoverDefaultsWhenMissing(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Dir != "" {
		t.Fatalf("Dir = %q, want empty for default config", cfg.Dir)
	}
	if cfg.Lint.DefaultMWidth != 1 || cfg.Lint.DefaultXWidth != 1 {
		t.Fatalf("default widths = %d/%d", cfg.Lint.DefaultMWidth, cfg.Lint.DefaultXWidth)
	}
}

func TestResolveAbsoluteUntouched(t *testing.T) {
	cfg := Config{Dir: "/proj"}
	abs := filepath.Join(string(filepath.Separator), "elsewhere", "rom.sfc")
	if got := cfg.Resolve(abs); got != abs {
		t.Fatalf("Resolve(%q) = %q", abs, got)
	}
}
