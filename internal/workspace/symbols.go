package workspace

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"z3dk/internal/parse"
)

// NormalizeSymbol folds a symbol name for matching. Editors send
// whatever the keyboard produced; NFC keeps composed and decomposed
// spellings of the same name equal.
func NormalizeSymbol(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// AllSymbols gathers every symbol reachable from the analysis roots plus
// the open buffers. Open buffers win on duplicate names so navigation
// follows unsaved edits.
func (ws *Workspace) AllSymbols() []parse.Symbol {
	collector := &parse.Collector{
		Cache:       ws.Cache,
		IncludeDirs: ws.Config.IncludePaths(),
	}
	seen := make(map[string]bool)
	var out []parse.Symbol
	for _, doc := range ws.docs {
		for _, s := range doc.Symbols {
			key := s.Name + "\x00" + s.URI
			if !seen[key] {
				seen[key] = true
				out = append(out, s)
			}
		}
	}
	for _, root := range ws.mainCandidates {
		for _, s := range collector.Collect(root) {
			key := s.Name + "\x00" + s.URI
			if !seen[key] {
				seen[key] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// MatchSymbols returns symbols whose normalized name contains the
// normalized query. An empty query matches everything up to limit.
func (ws *Workspace) MatchSymbols(query string, limit int) []parse.Symbol {
	needle := NormalizeSymbol(query)
	var out []parse.Symbol
	for _, s := range ws.AllSymbols() {
		if needle != "" && !strings.Contains(NormalizeSymbol(s.Name), needle) {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
