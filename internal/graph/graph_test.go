package graph

import "testing"

func TestRegisterDependencyIdempotent(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/child.asm", "/p/main.asm")
	g.RegisterDependency("/p/child.asm", "/p/main.asm")

	if got := g.Parents("/p/child.asm"); len(got) != 1 || got[0] != "/p/main.asm" {
		t.Fatalf("Parents = %v, want one edge", got)
	}
	if got := g.Children("/p/main.asm"); len(got) != 1 || got[0] != "/p/child.asm" {
		t.Fatalf("Children = %v, want one edge", got)
	}
}

func TestSelfEdgeIgnored(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/a.asm", "/p/a.asm")
	if len(g.Parents("/p/a.asm")) != 0 {
		t.Fatal("self edge must not be recorded")
	}
}

func TestAncestorDistances(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/leaf.asm", "/p/mid.asm")
	g.RegisterDependency("/p/mid.asm", "/p/main.asm")
	g.RegisterDependency("/p/leaf.asm", "/p/other.asm")

	dist := g.AncestorDistances("/p/leaf.asm")
	want := map[string]int{
		"/p/mid.asm":   1,
		"/p/other.asm": 1,
		"/p/main.asm":  2,
	}
	if len(dist) != len(want) {
		t.Fatalf("distances = %v, want %v", dist, want)
	}
	for k, v := range want {
		if dist[k] != v {
			t.Fatalf("dist[%s] = %d, want %d", k, dist[k], v)
		}
	}
}

func TestAncestorDistancesCycle(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/a.asm", "/p/b.asm")
	g.RegisterDependency("/p/b.asm", "/p/a.asm")

	dist := g.AncestorDistances("/p/a.asm")
	if len(dist) != 1 || dist["/p/b.asm"] != 1 {
		t.Fatalf("distances = %v, want only b at 1", dist)
	}
}

func TestSelectRootPrefersConfiguredRoots(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/child.asm", "/p/a_main.asm")
	g.RegisterDependency("/p/child.asm", "/p/b_main.asm")
	g.RegisterDependency("/p/a_main.asm", "/p/grand.asm")

	got := g.SelectRoot("/p/child.asm", []string{"/p/b_main.asm"})
	if got != "/p/b_main.asm" {
		t.Fatalf("SelectRoot = %s, want preferred root", got)
	}
}

func TestSelectRootNearestPreferredWins(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/child.asm", "/p/near.asm")
	g.RegisterDependency("/p/near.asm", "/p/far.asm")

	got := g.SelectRoot("/p/child.asm", []string{"/p/far.asm", "/p/near.asm"})
	if got != "/p/near.asm" {
		t.Fatalf("SelectRoot = %s, want nearest preferred", got)
	}
}

func TestSelectRootPreferredTieBreaksLexicographically(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/child.asm", "/p/b.asm")
	g.RegisterDependency("/p/child.asm", "/p/a.asm")

	got := g.SelectRoot("/p/child.asm", []string{"/p/b.asm", "/p/a.asm"})
	if got != "/p/a.asm" {
		t.Fatalf("SelectRoot = %s, want lexicographically first", got)
	}
}

func TestSelectRootFallsBackToTrueRoot(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/child.asm", "/p/mid.asm")
	g.RegisterDependency("/p/mid.asm", "/p/main.asm")

	got := g.SelectRoot("/p/child.asm", nil)
	if got != "/p/main.asm" {
		t.Fatalf("SelectRoot = %s, want parentless ancestor", got)
	}
}

func TestSelectRootOrphanIsItsOwnRoot(t *testing.T) {
	g := New()
	if got := g.SelectRoot("/p/lonely.asm", []string{"/p/main.asm"}); got != "/p/lonely.asm" {
		t.Fatalf("SelectRoot = %s, want the file itself", got)
	}
}

func TestSelectRootCycleWithoutRoots(t *testing.T) {
	// Mutual includes with no parentless ancestor: fall back to the file.
	g := New()
	g.RegisterDependency("/p/a.asm", "/p/b.asm")
	g.RegisterDependency("/p/b.asm", "/p/a.asm")

	if got := g.SelectRoot("/p/a.asm", nil); got != "/p/a.asm" {
		t.Fatalf("SelectRoot = %s, want the file itself", got)
	}
}

func TestForgetDropsBothDirections(t *testing.T) {
	g := New()
	g.RegisterDependency("/p/child.asm", "/p/main.asm")
	g.RegisterDependency("/p/grand.asm", "/p/child.asm")

	g.Forget("/p/child.asm")

	if len(g.Children("/p/main.asm")) != 0 {
		t.Fatal("parent still lists forgotten child")
	}
	if len(g.Parents("/p/grand.asm")) != 0 {
		t.Fatal("child still lists forgotten parent")
	}
}
