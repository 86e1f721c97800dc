package asm

import "sort"

// SourceIndex answers "which source line produced the byte at address X"
// with floor semantics. Built once per assemble result and immutable after
// construction.
type SourceIndex struct {
	files   map[int]string
	entries []SourceMapEntry
}

// NewSourceIndex copies and sorts the map's entries by (address, line).
func NewSourceIndex(m SourceMap) *SourceIndex {
	ix := &SourceIndex{
		files:   make(map[int]string, len(m.Files)),
		entries: make([]SourceMapEntry, len(m.Entries)),
	}
	for _, f := range m.Files {
		ix.files[f.ID] = f.Path
	}
	copy(ix.entries, m.Entries)
	sort.SliceStable(ix.entries, func(i, j int) bool {
		if ix.entries[i].Address != ix.entries[j].Address {
			return ix.entries[i].Address < ix.entries[j].Address
		}
		return ix.entries[i].Line < ix.entries[j].Line
	})
	return ix
}

// Lookup returns the entry with the greatest address <= addr, or false if
// addr precedes the first entry.
func (ix *SourceIndex) Lookup(addr uint32) (SourceMapEntry, bool) {
	if len(ix.entries) == 0 {
		return SourceMapEntry{}, false
	}
	// First entry strictly greater than addr; the floor sits just before it.
	i := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Address > addr
	})
	if i == 0 {
		return SourceMapEntry{}, false
	}
	return ix.entries[i-1], true
}

// FileForID resolves a source map file ID to its path.
func (ix *SourceIndex) FileForID(id int) (string, bool) {
	path, ok := ix.files[id]
	return path, ok
}
