package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"z3dk/internal/asm"
	"z3dk/internal/diag"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLintMergesAllRoots(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a_main.asm"), "org $008000\n")
	writeFile(t, filepath.Join(dir, "b_main.asm"), "org $018000\n")

	var mu sync.Mutex
	var patched []string
	fake := asm.Func(func(ctx context.Context, opts asm.Options) (asm.Result, error) {
		mu.Lock()
		patched = append(patched, opts.PatchPath)
		mu.Unlock()
		return asm.Result{
			Diagnostics: []diag.Diagnostic{
				diag.NewWarning("check me").At(opts.PatchPath, 1, 1),
			},
		}, nil
	})

	res, err := Lint(context.Background(), dir, LintOptions{Assembler: fake, Jobs: 2})
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	if len(res.Roots) != 2 || len(patched) != 2 {
		t.Fatalf("roots = %v, patched = %v", res.Roots, patched)
	}
	if res.Bag.Len() != 2 {
		t.Fatalf("bag = %v", res.Bag.Items())
	}
	items := res.Bag.Items()
	if items[0].File > items[1].File {
		t.Fatal("merged bag is not sorted")
	}
}

func TestLintExplicitRootsAndEvents(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	root := filepath.Join(dir, "patch.asm")
	writeFile(t, root, "org $008000\n")

	fake := asm.Func(func(ctx context.Context, opts asm.Options) (asm.Result, error) {
		return asm.Result{}, nil
	})

	events := make(chan Event, 16)
	var got []Event
	done := make(chan struct{})
	go func() {
		for ev := range events {
			got = append(got, ev)
		}
		close(done)
	}()

	res, err := Lint(context.Background(), dir, LintOptions{
		Roots:     []string{root},
		Assembler: fake,
		Events:    events,
	})
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	<-done

	if len(res.Roots) != 1 || res.Roots[0] != root {
		t.Fatalf("roots = %v", res.Roots)
	}
	if len(got) != 3 {
		t.Fatalf("events = %+v", got)
	}
	last := got[len(got)-1]
	if last.Stage != StageLint || last.Status != StatusDone {
		t.Fatalf("final event = %+v", last)
	}
}

func TestLintNoRoots(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	fake := asm.Func(func(ctx context.Context, opts asm.Options) (asm.Result, error) {
		return asm.Result{}, nil
	})
	if _, err := Lint(context.Background(), t.TempDir(), LintOptions{Assembler: fake}); err == nil {
		t.Fatal("expected error when nothing to lint")
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(StageAssemble, StatusWorking); got != "assembling" {
		t.Fatalf("got %q", got)
	}
	if got := StatusLabel(StageLint, StatusDone); got != "done" {
		t.Fatalf("got %q", got)
	}
}
