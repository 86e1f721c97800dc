// Package graph tracks include relationships between project files.
//
// Edges are recorded in both directions: child to parents for root
// selection, parent to children for invalidation. Keys are canonical
// absolute paths; callers normalize before registering.
package graph

import "sort"

type ProjectGraph struct {
	parents  map[string][]string
	children map[string][]string
}

func New() *ProjectGraph {
	return &ProjectGraph{
		parents:  make(map[string][]string),
		children: make(map[string][]string),
	}
}

// RegisterDependency records that parent includes child. Registering the
// same edge twice is a no-op.
func (g *ProjectGraph) RegisterDependency(child, parent string) {
	if child == parent {
		return
	}
	for _, p := range g.parents[child] {
		if p == parent {
			return
		}
	}
	g.parents[child] = append(g.parents[child], parent)
	g.children[parent] = append(g.children[parent], child)
}

// Parents returns the direct includers of path.
func (g *ProjectGraph) Parents(path string) []string {
	return g.parents[path]
}

// Children returns the files directly included by path.
func (g *ProjectGraph) Children(path string) []string {
	return g.children[path]
}

// AncestorDistances walks the parent edges breadth-first and returns the
// hop count from path to every reachable ancestor. path itself is not in
// the result.
func (g *ProjectGraph) AncestorDistances(path string) map[string]int {
	dist := make(map[string]int)
	queue := []string{path}
	dist[path] = 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, parent := range g.parents[curr] {
			if _, seen := dist[parent]; seen {
				continue
			}
			dist[parent] = dist[curr] + 1
			queue = append(queue, parent)
		}
	}
	delete(dist, path)
	return dist
}

// SelectRoot picks the file whose inclusion closure should be assembled
// when path changes. Preferred roots reachable from path win, nearest
// first with lexicographic tie-break. Failing that, any reachable
// ancestor with no parents of its own. A file nobody includes is its own
// root.
func (g *ProjectGraph) SelectRoot(path string, preferred []string) string {
	dist := g.AncestorDistances(path)
	if len(dist) == 0 {
		return path
	}

	best := ""
	bestDist := -1
	for _, cand := range preferred {
		d, ok := dist[cand]
		if !ok {
			continue
		}
		if bestDist == -1 || d < bestDist || (d == bestDist && cand < best) {
			best = cand
			bestDist = d
		}
	}
	if best != "" {
		return best
	}

	var roots []string
	for anc := range dist {
		if len(g.parents[anc]) == 0 {
			roots = append(roots, anc)
		}
	}
	if len(roots) == 0 {
		return path
	}
	sort.Strings(roots)
	best = roots[0]
	for _, r := range roots {
		if dist[r] < dist[best] {
			best = r
		}
	}
	return best
}

// Forget drops every edge touching path. Used when a file is deleted or
// its includes are about to be re-registered from a fresh parse.
func (g *ProjectGraph) Forget(path string) {
	for _, parent := range g.parents[path] {
		g.children[parent] = removeString(g.children[parent], path)
	}
	for _, child := range g.children[path] {
		g.parents[child] = removeString(g.parents[child], path)
	}
	delete(g.parents, path)
	delete(g.children, path)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
