package parse

import (
	"path/filepath"
	"strings"
)

// ContainsOrgDirective reports whether text establishes its own placement
// with org or a freespace-family directive.
func ContainsOrgDirective(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(stripComment(line))
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "org", "freespace", "freecode", "freedata":
			return true
		}
	}
	return false
}

// IncludesAfterOrg reports whether parentText includes childPath at a
// point where placement is already established. pushpc/pullpc save and
// restore that state, matching the assembler's PC stack.
func IncludesAfterOrg(parentText, childPath string) bool {
	childBase := filepath.Base(childPath)
	orgSeen := false
	var stack []bool
	for _, line := range strings.Split(parentText, "\n") {
		fields := strings.Fields(stripComment(line))
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "org", "freespace", "freecode", "freedata":
			orgSeen = true
		case "pushpc":
			stack = append(stack, orgSeen)
		case "pullpc":
			if n := len(stack); n > 0 {
				orgSeen = stack[n-1]
				stack = stack[:n-1]
			}
		case "incsrc", "include":
			if !orgSeen || len(fields) < 2 {
				continue
			}
			arg := strings.Trim(strings.TrimSpace(strings.Join(fields[1:], " ")), "\"")
			if filepath.Base(arg) == childBase {
				return true
			}
		}
	}
	return false
}
