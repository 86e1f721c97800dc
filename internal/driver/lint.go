// Package driver runs the batch analysis used by the lint command: every
// analysis root is assembled and linted, findings are merged into one
// sorted bag.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"z3dk/internal/asm"
	"z3dk/internal/config"
	"z3dk/internal/diag"
	"z3dk/internal/lint"
	"z3dk/internal/romcache"
	"z3dk/internal/workspace"
)

type LintOptions struct {
	// Roots overrides discovery with an explicit set of patch files.
	Roots []string
	// Jobs bounds concurrent assemblies. 0 means one per root.
	Jobs int
	// Assembler overrides the engine, mainly for tests.
	Assembler asm.Assembler
	// Events receives progress notifications when non-nil. The channel
	// is closed when the run finishes.
	Events chan<- Event
}

type LintResult struct {
	Roots []string
	Bag   *diag.Bag
}

// Lint assembles and lints every analysis root under dir.
func Lint(ctx context.Context, dir string, opts LintOptions) (*LintResult, error) {
	if opts.Events != nil {
		defer close(opts.Events)
	}

	cfg, err := config.Discover(dir)
	if err != nil {
		return nil, err
	}
	roots := opts.Roots
	if len(roots) == 0 {
		roots = discoverRoots(dir, cfg)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no analysis roots found under %s", dir)
	}
	for i, root := range roots {
		if abs, err := filepath.Abs(root); err == nil {
			roots[i] = abs
		}
	}

	assembler := opts.Assembler
	if assembler == nil {
		assembler = asm.NewExternal(cfg.Asm.Binary)
	}
	roms := romcache.NewPersistent("z3dk")

	var mu sync.Mutex
	merged := diag.NewBag(cfg.Lint.MaxDiagnostics() * len(roots))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for _, root := range roots {
		root := root
		g.Go(func() error {
			bag, err := lintRoot(gctx, cfg, assembler, roms, root, opts.Events)
			if err != nil {
				emit(opts.Events, Event{File: root, Stage: StageAssemble, Status: StatusError})
				return fmt.Errorf("%s: %w", root, err)
			}
			status := StatusDone
			if bag.HasErrors() {
				status = StatusError
			}
			emit(opts.Events, Event{File: root, Stage: StageLint, Status: status})
			mu.Lock()
			merged.Merge(bag)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged.Sort()
	merged.Dedup()
	return &LintResult{Roots: roots, Bag: merged}, nil
}

func lintRoot(ctx context.Context, cfg config.Config, assembler asm.Assembler, roms *romcache.Cache, root string, events chan<- Event) (*diag.Bag, error) {
	emit(events, Event{File: root, Stage: StageAssemble, Status: StatusWorking})

	opts := asm.Options{
		PatchPath:       root,
		IncludePaths:    cfg.IncludePaths(),
		StdIncludesPath: cfg.Resolve(cfg.Asm.StdIncludesPath),
		StdDefinesPath:  cfg.Resolve(cfg.Asm.StdDefinesPath),
	}
	if cfg.Asm.ROMPath != "" {
		data, err := roms.Load(cfg.Resolve(cfg.Asm.ROMPath))
		if err != nil {
			return nil, err
		}
		opts.ROMData = data
	} else if cfg.Asm.ROMSize > 0 {
		opts.ROMData = make([]byte, cfg.Asm.ROMSize)
	}
	for _, def := range cfg.Asm.Defines {
		name, value, _ := strings.Cut(def, "=")
		opts.Defines = append(opts.Defines, asm.Define{Name: name, Value: value})
	}

	res, err := assembler.Assemble(ctx, opts)
	if err != nil {
		return nil, err
	}

	emit(events, Event{File: root, Stage: StageLint, Status: StatusWorking})
	bag := diag.NewBag(cfg.Lint.MaxDiagnostics())
	for _, d := range res.Diagnostics {
		bag.Add(d)
	}
	lint.Run(&res, lint.Options{
		DefaultMWidthBytes:    cfg.Lint.DefaultMWidth,
		DefaultXWidthBytes:    cfg.Lint.DefaultXWidth,
		WarnUnknownWidth:      cfg.Lint.UnknownWidthEnabled(),
		WarnBranchOutsideBank: cfg.Lint.BranchOutsideBankEnabled(),
		WarnOrgCollision:      cfg.Lint.OrgCollisionEnabled(),
	}, diag.BagReporter{Bag: bag})
	return bag, nil
}

// DiscoverRoots returns the analysis roots Lint would pick for dir when
// no explicit roots are given. Callers use it to size progress displays.
func DiscoverRoots(dir string) ([]string, error) {
	cfg, err := config.Discover(dir)
	if err != nil {
		return nil, err
	}
	roots := discoverRoots(dir, cfg)
	for i, root := range roots {
		if abs, err := filepath.Abs(root); err == nil {
			roots[i] = abs
		}
	}
	return roots, nil
}

func discoverRoots(dir string, cfg config.Config) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range cfg.MainFilePaths() {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	var scanned []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if workspace.IsMainFileName(filepath.Base(path)) && isPatchFile(path) {
			scanned = append(scanned, path)
		}
		return nil
	})
	sort.Strings(scanned)
	for _, p := range scanned {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func isPatchFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s":
		return true
	}
	return false
}

func emit(ch chan<- Event, ev Event) {
	if ch != nil {
		ch <- ev
	}
}
