package lsp

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"z3dk/internal/parse"
	"z3dk/internal/workspace"
)

const commandAnalyze = "z3dk.analyzeAll"

var semanticTokenTypes = []string{
	"function", // labels
	"macro",
	"variable", // defines and data
	"struct",
	"property", // struct fields
}

func tokenTypeFor(kind parse.SymbolKind) int {
	switch kind {
	case parse.KindMacro:
		return 1
	case parse.KindDefine, parse.KindData:
		return 2
	case parse.KindStruct:
		return 3
	case parse.KindStructField:
		return 4
	}
	return 0
}

func completionKindFor(kind parse.SymbolKind) int {
	switch kind {
	case parse.KindMacro:
		return 3 // Function
	case parse.KindDefine:
		return 21 // Constant
	case parse.KindStruct:
		return 22 // Struct
	case parse.KindStructField:
		return 5 // Field
	}
	return 6 // Variable
}

func symbolKindFor(kind parse.SymbolKind) int {
	switch kind {
	case parse.KindMacro:
		return 12 // Function
	case parse.KindDefine:
		return 14 // Constant
	case parse.KindStruct:
		return 23 // Struct
	case parse.KindStructField:
		return 8 // Field
	}
	return 13 // Variable
}

func symbolURI(s parse.Symbol) string {
	if strings.HasPrefix(s.URI, "file://") {
		return s.URI
	}
	return pathToURI(s.URI)
}

func symbolLocation(s parse.Symbol) location {
	line := s.Line - 1
	if line < 0 {
		line = 0
	}
	col := s.Column - 1
	if col < 0 {
		col = 0
	}
	return location{
		URI: symbolURI(s),
		Range: lspRange{
			Start: position{Line: line, Character: col},
			End:   position{Line: line, Character: col + len(s.Name)},
		},
	}
}

func (s *Server) docAt(uri string) (*workspace.Document, bool) {
	return s.ws.Document(uri)
}

// resolveSymbol looks a name up in the document first, then across the
// workspace, trying the common spelling variants a reference can take.
func (s *Server) resolveSymbol(doc *workspace.Document, name string) (parse.Symbol, bool) {
	if name == "" {
		return parse.Symbol{}, false
	}
	candidates := []string{name, strings.TrimPrefix(name, "!")}
	for _, cand := range candidates {
		if sym, ok := doc.SymbolByName[cand]; ok {
			return sym, ok
		}
	}
	for _, sym := range s.ws.AllSymbols() {
		for _, cand := range candidates {
			if sym.Name == cand {
				return sym, true
			}
		}
	}
	return parse.Symbol{}, false
}

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, nil)
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	word, _, _ := wordAt(doc.Text, params.Position)
	sym, ok := s.resolveSymbol(doc, word)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, symbolLocation(sym))
}

func (s *Server) handleHover(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, nil)
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	word, _, _ := wordAt(doc.Text, params.Position)
	if word == "" {
		return s.sendResponse(msg.ID, nil)
	}

	if label, ok := doc.LabelByName[word]; ok {
		return s.sendResponse(msg.ID, hover{Contents: markupContent{
			Kind:  "markdown",
			Value: fmt.Sprintf("```\n%s = $%06X\n```", label.Name, label.Address),
		}})
	}
	if def, ok := doc.DefineByName[strings.TrimPrefix(word, "!")]; ok {
		return s.sendResponse(msg.ID, hover{Contents: markupContent{
			Kind:  "markdown",
			Value: fmt.Sprintf("```\n!%s = %s\n```", def.Name, def.Value),
		}})
	}
	if sym, ok := s.resolveSymbol(doc, word); ok {
		value := sym.Kind.String() + " " + sym.Name
		if sym.Kind == parse.KindMacro {
			value = fmt.Sprintf("macro %s(%s)", sym.Name, strings.Join(sym.Parameters, ", "))
		} else if sym.Detail != "" {
			value += " = " + sym.Detail
		}
		return s.sendResponse(msg.ID, hover{Contents: markupContent{
			Kind: "markdown", Value: "```\n" + value + "\n```",
		}})
	}
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, []completionItem{})
	}
	if _, ok := s.docAt(params.TextDocument.URI); !ok {
		return s.sendResponse(msg.ID, []completionItem{})
	}
	const completionLimit = 500
	items := make([]completionItem, 0, completionLimit)
	for _, sym := range s.ws.MatchSymbols("", completionLimit) {
		items = append(items, completionItem{
			Label:  sym.Name,
			Kind:   completionKindFor(sym.Kind),
			Detail: sym.Detail,
		})
	}
	return s.sendResponse(msg.ID, items)
}

func (s *Server) handleDocumentSymbol(msg *rpcMessage) error {
	var params documentSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, []symbolInformation{})
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []symbolInformation{})
	}
	out := make([]symbolInformation, 0, len(doc.Symbols))
	for _, sym := range doc.Symbols {
		out = append(out, symbolInformation{
			Name:     sym.Name,
			Kind:     symbolKindFor(sym.Kind),
			Location: symbolLocation(sym),
		})
	}
	return s.sendResponse(msg.ID, out)
}

func (s *Server) handleWorkspaceSymbol(msg *rpcMessage) error {
	var params workspaceSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, []symbolInformation{})
	}
	const workspaceSymbolLimit = 200
	matches := s.ws.MatchSymbols(params.Query, workspaceSymbolLimit)
	out := make([]symbolInformation, 0, len(matches))
	for _, sym := range matches {
		out = append(out, symbolInformation{
			Name:     sym.Name,
			Kind:     symbolKindFor(sym.Kind),
			Location: symbolLocation(sym),
		})
	}
	return s.sendResponse(msg.ID, out)
}

// wordOccurrences finds whole-word matches of name across the open
// documents.
func (s *Server) wordOccurrences(name string) map[string][]lspRange {
	out := make(map[string][]lspRange)
	for _, doc := range s.ws.Documents() {
		text := doc.Text
		line, lineStart := 0, 0
		for i := 0; i+len(name) <= len(text); i++ {
			if text[i] == '\n' {
				line++
				lineStart = i + 1
				continue
			}
			if text[i:i+len(name)] != name {
				continue
			}
			if i > 0 && isWordByte(text[i-1]) {
				continue
			}
			if end := i + len(name); end < len(text) && isWordByte(text[end]) {
				continue
			}
			col := i - lineStart
			out[doc.URI] = append(out[doc.URI], lspRange{
				Start: position{Line: line, Character: col},
				End:   position{Line: line, Character: col + len(name)},
			})
		}
	}
	return out
}

func (s *Server) handleReferences(msg *rpcMessage) error {
	var params referenceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, []location{})
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []location{})
	}
	word, _, _ := wordAt(doc.Text, params.Position)
	if word == "" {
		return s.sendResponse(msg.ID, []location{})
	}
	var out []location
	for uri, ranges := range s.wordOccurrences(word) {
		for _, r := range ranges {
			out = append(out, location{URI: uri, Range: r})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].URI != out[j].URI {
			return out[i].URI < out[j].URI
		}
		if out[i].Range.Start.Line != out[j].Range.Start.Line {
			return out[i].Range.Start.Line < out[j].Range.Start.Line
		}
		return out[i].Range.Start.Character < out[j].Range.Start.Character
	})
	return s.sendResponse(msg.ID, out)
}

func (s *Server) handleRename(msg *rpcMessage) error {
	var params renameParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, nil)
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	word, _, _ := wordAt(doc.Text, params.Position)
	if word == "" || params.NewName == "" {
		return s.sendResponse(msg.ID, nil)
	}
	changes := make(map[string][]textEdit)
	for uri, ranges := range s.wordOccurrences(word) {
		for _, r := range ranges {
			changes[uri] = append(changes[uri], textEdit{Range: r, NewText: params.NewName})
		}
	}
	if len(changes) == 0 {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, workspaceEdit{Changes: changes})
}

func (s *Server) handleSignatureHelp(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, nil)
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	offset := offsetForPosition(doc.Text, params.Position)
	lineStart := strings.LastIndexByte(doc.Text[:offset], '\n') + 1
	line := doc.Text[lineStart:offset]

	open := strings.LastIndexByte(line, '(')
	if open < 0 {
		return s.sendResponse(msg.ID, nil)
	}
	activeParam := strings.Count(line[open:], ",")
	nameEnd := open
	nameStart := nameEnd
	for nameStart > 0 && isWordByte(line[nameStart-1]) {
		nameStart--
	}
	name := line[nameStart:nameEnd]
	sym, ok := s.resolveSymbol(doc, name)
	if !ok || sym.Kind != parse.KindMacro {
		return s.sendResponse(msg.ID, nil)
	}

	info := signatureInformation{
		Label: fmt.Sprintf("%%%s(%s)", sym.Name, strings.Join(sym.Parameters, ", ")),
	}
	for _, p := range sym.Parameters {
		info.Parameters = append(info.Parameters, parameterInformation{Label: p})
	}
	if activeParam >= len(sym.Parameters) && len(sym.Parameters) > 0 {
		activeParam = len(sym.Parameters) - 1
	}
	return s.sendResponse(msg.ID, signatureHelp{
		Signatures:      []signatureInformation{info},
		ActiveParameter: activeParam,
	})
}

// handleInlayHint annotates lines the assembler placed with their SNES
// addresses.
func (s *Server) handleInlayHint(msg *rpcMessage) error {
	var params inlayHintParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, []inlayHint{})
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []inlayHint{})
	}

	lines := strings.Split(doc.Text, "\n")
	seen := make(map[int]bool)
	var hints []inlayHint
	for _, entry := range doc.SourceMap.Entries {
		file := ""
		for _, f := range doc.SourceMap.Files {
			if f.ID == entry.FileID {
				file = f.Path
				break
			}
		}
		if !workspace.PathMatches(file, doc.Path, s.ws.RootDir) {
			continue
		}
		line := entry.Line - 1
		if line < params.Range.Start.Line || line > params.Range.End.Line {
			continue
		}
		if seen[line] || line < 0 || line >= len(lines) {
			continue
		}
		seen[line] = true
		hints = append(hints, inlayHint{
			Position:    position{Line: line, Character: len(lines[line])},
			Label:       fmt.Sprintf("$%06X", entry.Address),
			PaddingLeft: true,
		})
	}
	sort.Slice(hints, func(i, j int) bool {
		return hints[i].Position.Line < hints[j].Position.Line
	})
	return s.sendResponse(msg.ID, hints)
}

func (s *Server) handleSemanticTokens(msg *rpcMessage) error {
	var params semanticTokensParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, semanticTokens{Data: []int{}})
	}
	doc, ok := s.docAt(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, semanticTokens{Data: []int{}})
	}

	syms := append([]parse.Symbol(nil), doc.Symbols...)
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Line != syms[j].Line {
			return syms[i].Line < syms[j].Line
		}
		return syms[i].Column < syms[j].Column
	})

	lines := strings.Split(doc.Text, "\n")
	data := make([]int, 0, len(syms)*5)
	prevLine, prevCol := 0, 0
	for _, sym := range syms {
		line, col := sym.Line-1, sym.Column-1
		if line < 0 || line >= len(lines) || col < 0 || col >= len(lines[line]) {
			continue
		}
		// Token length comes from the source text, not the qualified
		// symbol name.
		length := 0
		for col+length < len(lines[line]) && isWordByte(lines[line][col+length]) {
			length++
		}
		if length == 0 {
			continue
		}
		deltaLine := line - prevLine
		deltaCol := col
		if deltaLine == 0 {
			deltaCol = col - prevCol
		}
		if deltaLine < 0 || deltaCol < 0 {
			continue
		}
		data = append(data, deltaLine, deltaCol, length, tokenTypeFor(sym.Kind), 0)
		prevLine, prevCol = line, col
	}
	return s.sendResponse(msg.ID, semanticTokens{Data: data})
}

func (s *Server) handleExecuteCommand(msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendResponse(msg.ID, nil)
	}
	switch params.Command {
	case commandAnalyze:
		for _, doc := range s.ws.Documents() {
			doc.NeedsAnalysis = true
		}
		s.runPendingAnalyses(true)
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendError(msg.ID, -32602, "unknown command")
}
