// Package config loads z3dk.toml, the per-project manifest. Discovery
// walks up from the analyzed file so editing a file deep in the tree
// still picks up the project settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const FileName = "z3dk.toml"

type Config struct {
	Project ProjectConfig `toml:"project"`
	Asm     AsmConfig     `toml:"asm"`
	Lint    LintConfig    `toml:"lint"`
	Log     LogConfig     `toml:"log"`

	// Dir is the directory containing the manifest. Relative paths in the
	// manifest resolve against it. Empty when the config is the built-in
	// default.
	Dir string `toml:"-"`
}

type ProjectConfig struct {
	// MainFiles are the preferred analysis roots, relative to Dir.
	MainFiles []string `toml:"main_files"`
}

type AsmConfig struct {
	ROMPath         string   `toml:"rom_path"`
	ROMSize         int      `toml:"rom_size"`
	Mapper          string   `toml:"mapper"`
	IncludePaths    []string `toml:"include_paths"`
	Defines         []string `toml:"defines"`
	StdIncludesPath string   `toml:"std_includes_path"`
	StdDefinesPath  string   `toml:"std_defines_path"`
	Binary          string   `toml:"binary"`
}

type LintConfig struct {
	DefaultMWidth int `toml:"default_m_width"`
	DefaultXWidth int `toml:"default_x_width"`

	// nil means enabled; explicit false disables the check.
	WarnUnknownWidth      *bool `toml:"warn_unknown_width"`
	WarnBranchOutsideBank *bool `toml:"warn_branch_outside_bank"`
	WarnOrgCollision      *bool `toml:"warn_org_collision"`

	// LabelPrefixes name label families the project resolves outside the
	// assembled root, silencing missing-label errors for them.
	LabelPrefixes []string `toml:"label_prefixes"`

	MaxDiags int `toml:"max_diagnostics"`
}

type LogConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no manifest exists.
func Default() Config {
	return Config{
		Lint: LintConfig{DefaultMWidth: 1, DefaultXWidth: 1},
	}
}

// Find walks up from startDir to locate the manifest.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses the manifest at path.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Discover finds and loads the manifest governing startDir. Missing
// manifest is not an error; the default config is returned.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Resolve turns a manifest-relative path into an absolute one.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// MainFilePaths returns the configured analysis roots as absolute paths.
func (c Config) MainFilePaths() []string {
	out := make([]string, 0, len(c.Project.MainFiles))
	for _, f := range c.Project.MainFiles {
		out = append(out, c.Resolve(f))
	}
	return out
}

// IncludePaths returns the configured include directories as absolute
// paths.
func (c Config) IncludePaths() []string {
	out := make([]string, 0, len(c.Asm.IncludePaths))
	for _, p := range c.Asm.IncludePaths {
		out = append(out, c.Resolve(p))
	}
	return out
}

func enabled(v *bool) bool {
	return v == nil || *v
}

// MaxDiagnostics caps how many findings a single analysis reports.
func (c LintConfig) MaxDiagnostics() int {
	if c.MaxDiags > 0 {
		return c.MaxDiags
	}
	return 100
}

func (c LintConfig) UnknownWidthEnabled() bool      { return enabled(c.WarnUnknownWidth) }
func (c LintConfig) BranchOutsideBankEnabled() bool { return enabled(c.WarnBranchOutsideBank) }
func (c LintConfig) OrgCollisionEnabled() bool      { return enabled(c.WarnOrgCollision) }
