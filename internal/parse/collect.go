package parse

import (
	"path/filepath"

	"z3dk/internal/graph"
)

const (
	// maxIncludeDepth bounds recursion so include cycles and degenerate
	// trees cannot hang the collector.
	maxIncludeDepth = 16
	maxVisitedFiles = 128
)

// Collector walks a file's include closure, gathering symbols and
// registering dependency edges as it goes.
type Collector struct {
	Cache       *Cache
	Graph       *graph.ProjectGraph
	IncludeDirs []string
}

// Collect parses root and everything it transitively includes, returning
// all declared symbols. Include edges discovered along the way are
// registered on the graph even when the child was already visited, so
// the graph stays complete across repeated collections.
func (c *Collector) Collect(root string) []Symbol {
	visited := make(map[string]bool)
	dirs := append([]string(nil), c.IncludeDirs...)
	var symbols []Symbol
	c.walk(root, 0, visited, &dirs, &symbols)
	return symbols
}

func (c *Collector) walk(path string, depth int, visited map[string]bool, dirs *[]string, out *[]Symbol) {
	if depth > maxIncludeDepth || len(visited) >= maxVisitedFiles {
		return
	}
	if visited[path] {
		return
	}
	visited[path] = true

	res, err := c.Cache.Load(path)
	if err != nil {
		return
	}
	*out = append(*out, res.Symbols...)

	baseDir := filepath.Dir(path)
	for _, inc := range res.Includes {
		switch inc.Kind {
		case IncludeDir:
			*dirs = append(*dirs, ResolveIncdir(inc.Path, baseDir))
		case IncludeSource:
			child, ok := ResolveInclude(inc.Path, baseDir, *dirs)
			if !ok {
				continue
			}
			if c.Graph != nil {
				c.Graph.RegisterDependency(child, path)
			}
			c.walk(child, depth+1, visited, dirs, out)
		}
	}
}
