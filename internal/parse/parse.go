// Package parse extracts symbols and include references from assembly
// source text. The scanner is line oriented and deliberately shallow: it
// never evaluates expressions or expands macros, it only recognizes the
// declaration shapes an editor needs for navigation.
package parse

import "strings"

type SymbolKind uint8

const (
	KindLabel SymbolKind = iota
	KindMacro
	KindDefine
	KindStruct
	KindStructField
	KindData
)

func (k SymbolKind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindMacro:
		return "macro"
	case KindDefine:
		return "define"
	case KindStruct:
		return "struct"
	case KindStructField:
		return "struct-field"
	case KindData:
		return "data"
	}
	return "unknown"
}

type Symbol struct {
	Name   string
	Kind   SymbolKind
	Line   int // 1-based
	Column int // 1-based
	Detail string
	URI    string
	// Parameters is set for macros only.
	Parameters []string
}

type IncludeKind uint8

const (
	IncludeSource IncludeKind = iota
	IncludeDir
)

type Include struct {
	Kind IncludeKind
	Path string
	Line int
}

type Result struct {
	Symbols  []Symbol
	Includes []Include
}

// File scans text and returns the declared symbols and include
// directives. uri is recorded on every symbol for later navigation.
func File(text, uri string) Result {
	var res Result
	var nsStack []string
	currentStruct := ""

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		line = stripComment(strings.TrimSuffix(line, "\r"))

		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		column := len(line) - len(trimmed) + 1
		fields := strings.Fields(trimmed)
		head := strings.ToLower(fields[0])

		switch head {
		case "incsrc", "include":
			if path := includeArg(trimmed, fields[0]); path != "" {
				res.Includes = append(res.Includes, Include{Kind: IncludeSource, Path: path, Line: lineNo})
			}
			continue
		case "incdir":
			if path := includeArg(trimmed, fields[0]); path != "" {
				res.Includes = append(res.Includes, Include{Kind: IncludeDir, Path: path, Line: lineNo})
			}
			continue
		case "namespace":
			if len(fields) < 2 || strings.EqualFold(fields[1], "off") {
				nsStack = nsStack[:0]
			} else {
				nsStack = append(nsStack, fields[1])
			}
			continue
		case "pushns":
			if len(fields) >= 2 {
				nsStack = append(nsStack, fields[1])
			}
			continue
		case "popns":
			if n := len(nsStack); n > 0 {
				nsStack = nsStack[:n-1]
			}
			continue
		case "define":
			if len(fields) >= 2 {
				detail := ""
				if len(fields) >= 3 {
					detail = strings.Join(fields[2:], " ")
				}
				name := fields[1]
				if !strings.HasPrefix(name, "!") {
					name = qualify(strings.Join(nsStack, "_"), name)
				}
				res.Symbols = append(res.Symbols, Symbol{
					Name: name, Kind: KindDefine,
					Line: lineNo, Column: column, Detail: detail, URI: uri,
				})
			}
			continue
		case "struct":
			if len(fields) >= 2 {
				currentStruct = fields[1]
				res.Symbols = append(res.Symbols, Symbol{
					Name: currentStruct, Kind: KindStruct,
					Line: lineNo, Column: column, URI: uri,
				})
			}
			continue
		case "endstruct":
			currentStruct = ""
			continue
		case "macro":
			if sym, ok := parseMacro(trimmed, lineNo, column, uri); ok {
				res.Symbols = append(res.Symbols, sym)
			}
			continue
		}

		ns := strings.Join(nsStack, "_")

		switch {
		case strings.HasSuffix(fields[0], ":"):
			name := strings.TrimSuffix(fields[0], ":")
			if name == "" {
				continue
			}
			if currentStruct != "" && strings.HasPrefix(name, ".") {
				res.Symbols = append(res.Symbols, Symbol{
					Name: currentStruct + name, Kind: KindStructField,
					Line: lineNo, Column: column, URI: uri,
				})
				continue
			}
			res.Symbols = append(res.Symbols, Symbol{
				Name: qualify(ns, name), Kind: KindLabel,
				Line: lineNo, Column: column, URI: uri,
			})

		case len(fields) >= 2 && (fields[1] == "=" || fields[1] == ":="):
			detail := ""
			if len(fields) >= 3 {
				detail = strings.Join(fields[2:], " ")
			}
			kind := KindDefine
			name := fields[0]
			if !strings.HasPrefix(name, "!") {
				name = qualify(ns, name)
			}
			res.Symbols = append(res.Symbols, Symbol{
				Name: name, Kind: kind,
				Line: lineNo, Column: column, Detail: detail, URI: uri,
			})

		case len(fields) == 1 && len(fields[0]) > 1 && strings.HasPrefix(fields[0], "!"):
			res.Symbols = append(res.Symbols, Symbol{
				Name: fields[0], Kind: KindDefine,
				Line: lineNo, Column: column, URI: uri,
			})

		case len(fields) >= 2 && isDataDirective(fields[1]):
			res.Symbols = append(res.Symbols, Symbol{
				Name: qualify(ns, fields[0]), Kind: KindData,
				Line: lineNo, Column: column, URI: uri,
			})
		}
	}
	return res
}

// stripComment cuts the line at the first ; outside a double-quoted
// string. Backslash escapes inside quotes are honored.
func stripComment(line string) string {
	inQuote := false
	escaped := false
	for i, r := range line {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inQuote {
				escaped = true
			}
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

func includeArg(line, directive string) string {
	rest := strings.TrimSpace(line[strings.Index(line, directive)+len(directive):])
	rest = strings.Trim(rest, "\"")
	return rest
}

func parseMacro(line string, lineNo, column int, uri string) (Symbol, bool) {
	rest := strings.TrimSpace(line[len("macro"):])
	if rest == "" {
		return Symbol{}, false
	}
	name := rest
	var params []string
	if open := strings.IndexByte(rest, '('); open >= 0 {
		name = strings.TrimSpace(rest[:open])
		inner := rest[open+1:]
		if close := strings.IndexByte(inner, ')'); close >= 0 {
			inner = inner[:close]
		}
		for _, p := range strings.Split(inner, ",") {
			if p = strings.TrimSpace(p); p != "" {
				params = append(params, p)
			}
		}
	}
	if name == "" {
		return Symbol{}, false
	}
	return Symbol{
		Name: name, Kind: KindMacro,
		Line: lineNo, Column: column, URI: uri,
		Parameters: params,
	}, true
}

func qualify(ns, name string) string {
	if ns == "" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "?") {
		return name
	}
	return ns + "_" + name
}

func isDataDirective(tok string) bool {
	switch strings.ToLower(tok) {
	case "db", "dw", "dl", "dd":
		return true
	}
	return false
}
