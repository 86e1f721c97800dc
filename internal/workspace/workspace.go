// Package workspace owns the editor-facing project state: open
// documents, the include graph, symbol indexes and the analysis
// pipeline that turns a saved buffer into diagnostics.
package workspace

import (
	"bytes"
	"io/fs"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"z3dk/internal/asm"
	"z3dk/internal/config"
	"z3dk/internal/graph"
	"z3dk/internal/parse"
	"z3dk/internal/romcache"
)

type Workspace struct {
	RootDir   string
	Config    config.Config
	Cache     *parse.Cache
	Graph     *graph.ProjectGraph
	ROMs      *romcache.Cache
	Assembler asm.Assembler

	docs           map[string]*Document // keyed by URI
	gitRoot        string
	ignored        map[string]bool
	mainCandidates []string
}

// New builds the workspace state for rootDir: manifest discovery, git
// metadata, analysis-root candidates and the initial include graph.
func New(rootDir string, assembler asm.Assembler) (*Workspace, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Discover(abs)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		RootDir:   abs,
		Config:    cfg,
		Cache:     parse.NewCache(),
		Graph:     graph.New(),
		ROMs:      romcache.NewPersistent("z3dk"),
		Assembler: assembler,
		docs:      make(map[string]*Document),
	}
	if root, ok := gitTopLevel(abs); ok {
		ws.gitRoot = root
		ws.ignored = gitIgnoredPaths(root)
	}
	ws.RefreshRoots()
	return ws, nil
}

// RefreshRoots rescans the analysis-root candidates and re-seeds the
// include graph from them.
func (ws *Workspace) RefreshRoots() {
	ws.mainCandidates = ws.findMainCandidates()
	collector := &parse.Collector{
		Cache:       ws.Cache,
		Graph:       ws.Graph,
		IncludeDirs: ws.Config.IncludePaths(),
	}
	for _, root := range ws.mainCandidates {
		collector.Collect(root)
	}
}

// MainCandidates returns the preferred analysis roots, configured ones
// first.
func (ws *Workspace) MainCandidates() []string {
	return ws.mainCandidates
}

func (ws *Workspace) findMainCandidates() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	for _, p := range ws.Config.MainFilePaths() {
		add(p)
	}
	var scanned []string
	filepath.WalkDir(ws.RootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if isSourceFile(path) && IsMainFileName(filepath.Base(path)) {
			scanned = append(scanned, path)
		}
		return nil
	})
	sort.Strings(scanned)
	for _, p := range scanned {
		add(p)
	}
	return out
}

func isSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s", ".inc":
		return true
	}
	return false
}

// IsMainFileName reports whether name looks like a top-level patch
// entry point.
func IsMainFileName(name string) bool {
	stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	return stem == "main" ||
		strings.HasSuffix(stem, "_main") ||
		strings.HasSuffix(stem, "-main")
}

// Ignored reports whether git considers path ignored. Ignored files are
// parsed for navigation but never assembled.
func (ws *Workspace) Ignored(path string) bool {
	return ws.ignored[filepath.Clean(path)]
}

func gitTopLevel(dir string) (string, bool) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		return "", false
	}
	return root, true
}

func gitIgnoredPaths(gitRoot string) map[string]bool {
	cmd := exec.Command("git", "ls-files", "-o", "-i", "--exclude-standard", "-z")
	cmd.Dir = gitRoot
	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	ignored := make(map[string]bool)
	for _, rel := range bytes.Split(out, []byte{0}) {
		if len(rel) == 0 {
			continue
		}
		ignored[filepath.Join(gitRoot, string(rel))] = true
	}
	return ignored
}
