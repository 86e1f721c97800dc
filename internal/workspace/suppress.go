package workspace

import (
	"strings"

	"z3dk/internal/diag"
	"z3dk/internal/parse"
)

// suppressMissingLabel decides whether an unresolved-label error should
// be hidden. The assembler only sees one inclusion closure, so labels
// resolved elsewhere in the project show up as false positives. Every
// rule requires the resolving spelling to exist in the known set; a
// name nothing in the project declares stays an error.
func suppressMissingLabel(name string, known map[string]bool, prefixes []string) bool {
	if known[name] {
		return true
	}
	for _, prefix := range prefixes {
		if known[prefix+name] {
			return true
		}
		if strings.HasPrefix(name, prefix) && known[name[len(prefix):]] {
			return true
		}
	}
	// Namespaced code references the bare tail of a qualified name.
	if i := strings.IndexByte(name, '_'); i > 0 && known[name[i+1:]] {
		return true
	}
	return false
}

const missingOrgMessage = "Missing org or freespace command"

// suppressMissingOrg hides the placement error for fragments that are
// only ever assembled through a parent that establishes placement first.
func (ws *Workspace) suppressMissingOrg(doc *Document, root string) bool {
	if doc.Path == root {
		return false
	}
	if parse.ContainsOrgDirective(doc.Text) {
		return false
	}
	for _, parent := range ws.Graph.Parents(doc.Path) {
		text, err := ws.Cache.Text(parent)
		if err != nil {
			continue
		}
		if parse.IncludesAfterOrg(text, doc.Path) {
			return true
		}
	}
	return false
}

// filterDiagnostics keeps the findings that belong in doc's editor view
// and applies the suppression heuristics.
func (ws *Workspace) filterDiagnostics(doc *Document, root string, diags []diag.Diagnostic, known map[string]bool) []diag.Diagnostic {
	rootDir := dirOf(root)
	dropMissingOrg := ws.suppressMissingOrg(doc, root)

	var out []diag.Diagnostic
	for _, d := range diags {
		// Findings without a filename belong to the patch as a whole and
		// surface only on the root itself.
		if d.File == "" && doc.Path != root {
			continue
		}
		if d.File != "" && !PathMatches(d.File, doc.Path, rootDir, ws.RootDir) {
			continue
		}
		if name, ok := ExtractMissingLabel(d.Message); ok &&
			suppressMissingLabel(name, known, ws.Config.Lint.LabelPrefixes) {
			continue
		}
		if dropMissingOrg && strings.Contains(d.Message, missingOrgMessage) {
			continue
		}
		out = append(out, d)
	}
	return out
}
