package workspace

import (
	"context"
	"path/filepath"
	"strings"

	"z3dk/internal/asm"
	"z3dk/internal/diag"
	"z3dk/internal/lint"
	"z3dk/internal/parse"
)

// Analyze assembles the document's inclusion closure and refreshes its
// diagnostics and navigation data. The document is analyzed through its
// selected root, so edits to a fragment validate the whole patch it
// belongs to.
func (ws *Workspace) Analyze(ctx context.Context, doc *Document) error {
	doc.NeedsAnalysis = false

	if ws.Ignored(doc.Path) {
		doc.Diagnostics = nil
		doc.BuildLookupMaps()
		return nil
	}

	collector := &parse.Collector{
		Cache:       ws.Cache,
		Graph:       ws.Graph,
		IncludeDirs: ws.Config.IncludePaths(),
	}
	collector.Collect(doc.Path)

	root := ws.Graph.SelectRoot(doc.Path, ws.mainCandidates)

	// Missing-label suppression consults the whole workspace, not just
	// the selected root's closure: a label declared under another entry
	// point still resolves once that patch is applied.
	closure := collector.Collect(root)
	known := make(map[string]bool, len(closure))
	for _, s := range closure {
		known[s.Name] = true
	}
	for _, candidate := range ws.mainCandidates {
		if candidate == root {
			continue
		}
		for _, s := range collector.Collect(candidate) {
			known[s.Name] = true
		}
	}
	for _, s := range doc.Symbols {
		known[s.Name] = true
	}

	opts, err := ws.assembleOptions(root)
	if err != nil {
		return err
	}
	res, err := ws.Assembler.Assemble(ctx, opts)
	if err != nil {
		return err
	}

	bag := diag.NewBag(ws.Config.Lint.MaxDiagnostics())
	for _, d := range res.Diagnostics {
		bag.Add(d)
	}
	lint.Run(&res, ws.lintOptions(doc, &res), diag.BagReporter{Bag: bag})
	bag.Sort()
	bag.Dedup()

	doc.Diagnostics = ws.filterDiagnostics(doc, root, bag.Items(), known)
	doc.Labels = res.Labels
	doc.Defines = res.Defines
	doc.SourceMap = res.SourceMap
	doc.WrittenBlocks = res.WrittenBlocks
	doc.BuildLookupMaps()
	return nil
}

func (ws *Workspace) assembleOptions(root string) (asm.Options, error) {
	cfg := ws.Config
	opts := asm.Options{
		PatchPath:       root,
		IncludePaths:    cfg.IncludePaths(),
		StdIncludesPath: cfg.Resolve(cfg.Asm.StdIncludesPath),
		StdDefinesPath:  cfg.Resolve(cfg.Asm.StdDefinesPath),
	}
	if cfg.Asm.ROMPath != "" {
		data, err := ws.ROMs.Load(cfg.Resolve(cfg.Asm.ROMPath))
		if err != nil {
			return asm.Options{}, err
		}
		opts.ROMData = data
	} else if cfg.Asm.ROMSize > 0 {
		opts.ROMData = make([]byte, cfg.Asm.ROMSize)
	}
	for _, def := range cfg.Asm.Defines {
		name, value, _ := strings.Cut(def, "=")
		opts.Defines = append(opts.Defines, asm.Define{Name: name, Value: value})
	}
	for _, open := range ws.docs {
		opts.MemoryFiles = append(opts.MemoryFiles, asm.MemoryFile{
			Path: open.Path, Contents: open.Text,
		})
	}
	return opts, nil
}

func (ws *Workspace) lintOptions(doc *Document, res *asm.Result) lint.Options {
	cfg := ws.Config.Lint
	return lint.Options{
		DefaultMWidthBytes:    cfg.DefaultMWidth,
		DefaultXWidthBytes:    cfg.DefaultXWidth,
		WarnUnknownWidth:      cfg.UnknownWidthEnabled(),
		WarnBranchOutsideBank: cfg.BranchOutsideBankEnabled(),
		WarnOrgCollision:      cfg.OrgCollisionEnabled(),
		StateOverrides:        ws.assumeOverrides(doc, res),
	}
}

// assumeOverrides maps `; assume m:8` style hints in doc onto the
// addresses the source map assigns to their lines.
func (ws *Workspace) assumeOverrides(doc *Document, res *asm.Result) []lint.StateOverride {
	hints := parseAssumeHints(doc.Text)
	if len(hints) == 0 {
		return nil
	}
	rootDir := ws.RootDir
	var out []lint.StateOverride
	for _, entry := range res.SourceMap.Entries {
		hint, ok := hints[entry.Line]
		if !ok {
			continue
		}
		file := ""
		for _, f := range res.SourceMap.Files {
			if f.ID == entry.FileID {
				file = f.Path
				break
			}
		}
		if !PathMatches(file, doc.Path, rootDir) {
			continue
		}
		out = append(out, lint.StateOverride{
			Address: entry.Address,
			MWidth:  hint.mWidth,
			XWidth:  hint.xWidth,
		})
	}
	return out
}

type assumeHint struct {
	mWidth int
	xWidth int
}

// parseAssumeHints recognizes `; assume m:8`, `; assume x:16` and the
// combined `; assume mx:8` forms, keyed by 1-based line.
func parseAssumeHints(text string) map[int]assumeHint {
	var hints map[int]assumeHint
	for i, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, "; assume ")
		if idx < 0 {
			continue
		}
		var hint assumeHint
		valid := false
		for _, field := range strings.Fields(line[idx+len("; assume "):]) {
			reg, width, ok := strings.Cut(field, ":")
			if !ok {
				break
			}
			bytes := 0
			switch width {
			case "8":
				bytes = 1
			case "16":
				bytes = 2
			default:
				continue
			}
			switch strings.ToLower(reg) {
			case "m":
				hint.mWidth = bytes
				valid = true
			case "x":
				hint.xWidth = bytes
				valid = true
			case "mx":
				hint.mWidth = bytes
				hint.xWidth = bytes
				valid = true
			}
		}
		if valid {
			if hints == nil {
				hints = make(map[int]assumeHint)
			}
			hints[i+1] = hint
		}
	}
	return hints
}

func dirOf(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}
