package workspace

import (
	"time"

	"z3dk/internal/asm"
	"z3dk/internal/diag"
	"z3dk/internal/parse"
)

// Document is one open editor buffer plus the artifacts of its last
// analysis.
type Document struct {
	URI     string
	Path    string
	Text    string
	Version int

	NeedsAnalysis bool
	LastChange    time.Time

	Diagnostics   []diag.Diagnostic
	Symbols       []parse.Symbol
	Labels        []asm.Label
	Defines       []asm.Define
	SourceMap     asm.SourceMap
	WrittenBlocks []asm.WrittenBlock

	LabelByName    map[string]asm.Label
	DefineByName   map[string]asm.Define
	LabelByAddress map[uint32]asm.Label
	SymbolByName   map[string]parse.Symbol
}

// BuildLookupMaps rebuilds the per-document indexes after an analysis.
func (d *Document) BuildLookupMaps() {
	d.LabelByName = make(map[string]asm.Label, len(d.Labels))
	d.LabelByAddress = make(map[uint32]asm.Label, len(d.Labels))
	for _, l := range d.Labels {
		d.LabelByName[l.Name] = l
		d.LabelByAddress[l.Address] = l
	}
	d.DefineByName = make(map[string]asm.Define, len(d.Defines))
	for _, def := range d.Defines {
		d.DefineByName[def.Name] = def
	}
	d.SymbolByName = make(map[string]parse.Symbol, len(d.Symbols))
	for _, s := range d.Symbols {
		// First declaration wins; duplicates keep their original site.
		if _, ok := d.SymbolByName[s.Name]; !ok {
			d.SymbolByName[s.Name] = s
		}
	}
}

// OpenDocument registers a buffer and pins its contents as a parse
// overlay so includes resolve against the editor state, not the disk.
func (ws *Workspace) OpenDocument(uri, path, text string, version int) *Document {
	doc := &Document{
		URI:           uri,
		Path:          path,
		Text:          text,
		Version:       version,
		NeedsAnalysis: true,
		LastChange:    time.Now(),
	}
	ws.docs[uri] = doc
	ws.Cache.Overlay(path, text)
	doc.Symbols = parse.File(text, uri).Symbols
	return doc
}

// ChangeDocument applies new contents to an open buffer. Symbols are
// refreshed immediately, the heavy analysis is deferred to the debounce.
func (ws *Workspace) ChangeDocument(uri, text string, version int) *Document {
	doc, ok := ws.docs[uri]
	if !ok {
		return nil
	}
	doc.Text = text
	doc.Version = version
	doc.NeedsAnalysis = true
	doc.LastChange = time.Now()
	ws.Cache.Overlay(doc.Path, text)
	doc.Symbols = parse.File(text, uri).Symbols
	return doc
}

// CloseDocument drops the buffer and its overlay.
func (ws *Workspace) CloseDocument(uri string) {
	if doc, ok := ws.docs[uri]; ok {
		ws.Cache.DropOverlay(doc.Path)
		delete(ws.docs, uri)
	}
}

// Document returns the open buffer for uri, if any.
func (ws *Workspace) Document(uri string) (*Document, bool) {
	doc, ok := ws.docs[uri]
	return doc, ok
}

// Documents returns every open buffer.
func (ws *Workspace) Documents() []*Document {
	out := make([]*Document, 0, len(ws.docs))
	for _, doc := range ws.docs {
		out = append(out, doc)
	}
	return out
}
