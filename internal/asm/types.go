// Package asm defines the contract with the external assembly engine.
//
// The engine itself (the thing that turns patch source plus includes and
// defines into a ROM image) is not part of this module; it is consumed as a
// black box through the Assembler interface. Everything here mirrors the
// engine's output shape: written byte ranges, a per-byte source map, label
// and define tables, and diagnostics.
package asm

import (
	"context"

	"z3dk/internal/diag"
)

// Label is one resolved label from the engine's label table.
type Label struct {
	Name    string
	Address uint32
	Used    bool
}

// Define is one resolved textual define.
type Define struct {
	Name  string
	Value string
}

// WrittenBlock is a contiguous region the engine wrote into the ROM image.
// PCOffset indexes ROMData; SNESOffset is the mapped address of the first
// byte. These ranges are the source of truth for where code exists: the
// linter scans exactly these and never guesses boundaries elsewhere.
type WrittenBlock struct {
	PCOffset   int
	SNESOffset int
	NumBytes   int
}

// SourceFile identifies one input file referenced by the source map.
type SourceFile struct {
	ID   int
	CRC  uint32
	Path string
}

// SourceMapEntry maps an output address to the source line that produced it.
type SourceMapEntry struct {
	Address uint32
	FileID  int
	Line    int
}

// SourceMap is the engine's address-to-source mapping. Rebuilt wholesale on
// every assemble; never mutated in place.
type SourceMap struct {
	Files   []SourceFile
	Entries []SourceMapEntry
}

// MemoryFile overlays in-memory contents over a file on disk, so unsaved
// editor buffers are visible to the engine.
type MemoryFile struct {
	Path     string
	Contents string
}

// Options is the full input to one assemble run.
type Options struct {
	PatchPath       string
	ROMData         []byte
	IncludePaths    []string
	Defines         []Define
	StdIncludesPath string
	StdDefinesPath  string
	MemoryFiles     []MemoryFile
}

// Result is the full output of one assemble run. Diagnostics are expected
// output, not an exceptional path: a failed assemble still carries the
// errors that explain the failure.
type Result struct {
	Success       bool
	Diagnostics   []diag.Diagnostic
	Prints        []string
	Labels        []Label
	Defines       []Define
	WrittenBlocks []WrittenBlock
	ROMData       []byte
	MapperID      int
	SourceMap     SourceMap
}

// Assembler is the external engine boundary.
type Assembler interface {
	Assemble(ctx context.Context, opts Options) (Result, error)
}

// Func adapts a plain function to the Assembler interface.
type Func func(ctx context.Context, opts Options) (Result, error)

func (f Func) Assemble(ctx context.Context, opts Options) (Result, error) {
	return f(ctx, opts)
}
