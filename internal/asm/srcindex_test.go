package asm

import "testing"

func testMap() SourceMap {
	return SourceMap{
		Files: []SourceFile{
			{ID: 0, Path: "main.asm"},
			{ID: 1, Path: "lib/sprites.asm"},
		},
		// Deliberately unsorted; the index must sort by (address, line).
		Entries: []SourceMapEntry{
			{Address: 0x8010, FileID: 1, Line: 3},
			{Address: 0x8000, FileID: 0, Line: 10},
			{Address: 0x8004, FileID: 0, Line: 11},
			{Address: 0x8004, FileID: 0, Line: 12},
		},
	}
}

func TestLookupFloor(t *testing.T) {
	ix := NewSourceIndex(testMap())

	tests := []struct {
		addr     uint32
		wantLine int
		wantFile int
		ok       bool
	}{
		{0x7FFF, 0, 0, false},
		{0x8000, 10, 0, true},
		{0x8003, 10, 0, true},
		{0x8004, 12, 0, true}, // greatest entry at equal address
		{0x800F, 12, 0, true},
		{0x8010, 3, 1, true},
		{0xFFFF, 3, 1, true},
	}
	for _, tt := range tests {
		entry, ok := ix.Lookup(tt.addr)
		if ok != tt.ok {
			t.Fatalf("Lookup(%#x) ok = %v, want %v", tt.addr, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if entry.Line != tt.wantLine || entry.FileID != tt.wantFile {
			t.Fatalf("Lookup(%#x) = {file %d line %d}, want {file %d line %d}",
				tt.addr, entry.FileID, entry.Line, tt.wantFile, tt.wantLine)
		}
	}
}

func TestLookupEmpty(t *testing.T) {
	ix := NewSourceIndex(SourceMap{})
	if _, ok := ix.Lookup(0x8000); ok {
		t.Fatal("expected no entry from empty index")
	}
}

func TestFileForID(t *testing.T) {
	ix := NewSourceIndex(testMap())
	if path, ok := ix.FileForID(1); !ok || path != "lib/sprites.asm" {
		t.Fatalf("FileForID(1) = %q, %v", path, ok)
	}
	if _, ok := ix.FileForID(7); ok {
		t.Fatal("expected miss for unknown file id")
	}
}

func TestIndexDoesNotMutateInput(t *testing.T) {
	m := testMap()
	NewSourceIndex(m)
	if m.Entries[0].Address != 0x8010 {
		t.Fatal("source map entries were reordered in place")
	}
}
