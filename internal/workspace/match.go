package workspace

import (
	"path/filepath"
	"strings"
)

// PathMatches decides whether a path reported by the assembler refers to
// docPath. Reported paths come back in whatever form they were fed in,
// so the check runs a chain: exact absolute match, then resolution
// against each base directory, then a path-suffix match on whole
// components.
func PathMatches(reported, docPath string, baseDirs ...string) bool {
	if reported == "" || docPath == "" {
		return false
	}
	docPath = filepath.Clean(docPath)
	if filepath.IsAbs(reported) {
		return filepath.Clean(reported) == docPath
	}
	for _, dir := range baseDirs {
		if dir != "" && filepath.Join(dir, reported) == docPath {
			return true
		}
	}
	suffix := filepath.ToSlash(filepath.Clean(reported))
	full := filepath.ToSlash(docPath)
	return full == suffix || strings.HasSuffix(full, "/"+suffix)
}

// ExtractMissingLabel pulls the label name out of the assembler's
// unresolved-label message.
func ExtractMissingLabel(msg string) (string, bool) {
	if !strings.Contains(msg, "abel") || !strings.Contains(msg, "wasn't found") {
		return "", false
	}
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return "", false
	}
	rest := msg[start+1:]
	end := strings.IndexByte(rest, '\'')
	if end <= 0 {
		return "", false
	}
	return rest[:end], true
}
