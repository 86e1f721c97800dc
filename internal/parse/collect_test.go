package parse

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"z3dk/internal/graph"
)

func TestCollectFollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.asm"), "Main:\nincsrc sub.asm\n")
	writeFile(t, filepath.Join(dir, "sub.asm"), "Sub:\n")

	g := graph.New()
	c := &Collector{Cache: NewCache(), Graph: g}
	syms := c.Collect(filepath.Join(dir, "main.asm"))

	names := make(map[string]bool)
	for _, s := range syms {
		names[s.Name] = true
	}
	if !names["Main"] || !names["Sub"] {
		t.Fatalf("symbols = %v", syms)
	}
	parents := g.Parents(filepath.Join(dir, "sub.asm"))
	if len(parents) != 1 || parents[0] != filepath.Join(dir, "main.asm") {
		t.Fatalf("parents = %v", parents)
	}
}

func TestCollectIncdirExtendsSearchPath(t *testing.T) {
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	if err := os.Mkdir(libDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "main.asm"), "incdir lib\nincsrc util.asm\n")
	writeFile(t, filepath.Join(libDir, "util.asm"), "Util:\n")

	c := &Collector{Cache: NewCache(), Graph: graph.New()}
	syms := c.Collect(filepath.Join(dir, "main.asm"))

	if len(syms) != 1 || syms[0].Name != "Util" {
		t.Fatalf("symbols = %v", syms)
	}
}

func TestCollectSurvivesIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.asm"), "A:\nincsrc b.asm\n")
	writeFile(t, filepath.Join(dir, "b.asm"), "B:\nincsrc a.asm\n")

	c := &Collector{Cache: NewCache(), Graph: graph.New()}
	syms := c.Collect(filepath.Join(dir, "a.asm"))

	if len(syms) != 2 {
		t.Fatalf("symbols = %v", syms)
	}
}

func TestCollectMissingIncludeSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.asm"), "Main:\nincsrc gone.asm\nTail:\n")

	c := &Collector{Cache: NewCache(), Graph: graph.New()}
	syms := c.Collect(filepath.Join(dir, "main.asm"))

	if len(syms) != 2 {
		t.Fatalf("symbols = %v", syms)
	}
}

func TestCollectBoundedByVisitLimit(t *testing.T) {
	dir := t.TempDir()
	// A long singly-linked chain; the collector must stop at its caps
	// rather than walk all of it.
	const n = maxVisitedFiles + 50
	for i := 0; i < n; i++ {
		body := fmt.Sprintf("L%d:\n", i)
		if i+1 < n {
			body += fmt.Sprintf("incsrc f%d.asm\n", i+1)
		}
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%d.asm", i)), body)
	}

	c := &Collector{Cache: NewCache(), Graph: graph.New()}
	syms := c.Collect(filepath.Join(dir, "f0.asm"))

	if len(syms) > maxIncludeDepth+1 {
		t.Fatalf("collected %d symbols past the depth cap", len(syms))
	}
}
