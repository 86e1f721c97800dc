package asm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"z3dk/internal/diag"
)

// External runs the assembly engine as a subprocess speaking JSON: one
// request object on stdin, one result object on stdout. The wire structs
// below are decoded once at this boundary and never leak further in.
type External struct {
	Binary string
	Args   []string
}

// DefaultBinary is the engine executable looked up on PATH when no
// explicit path is configured.
const DefaultBinary = "z3asm"

func NewExternal(binary string) *External {
	if binary == "" {
		binary = DefaultBinary
	}
	return &External{Binary: binary, Args: []string{"--json"}}
}

type wireDefine struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type wireMemoryFile struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

type wireRequest struct {
	PatchPath       string           `json:"patchPath"`
	ROMData         []byte           `json:"romData,omitempty"`
	IncludePaths    []string         `json:"includePaths,omitempty"`
	Defines         []wireDefine     `json:"defines,omitempty"`
	StdIncludesPath string           `json:"stdIncludesPath,omitempty"`
	StdDefinesPath  string           `json:"stdDefinesPath,omitempty"`
	MemoryFiles     []wireMemoryFile `json:"memoryFiles,omitempty"`
}

type wireDiagnostic struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

type wireLabel struct {
	Name    string `json:"name"`
	Address uint32 `json:"address"`
	Used    bool   `json:"used,omitempty"`
}

type wireBlock struct {
	PCOffset   int `json:"pcOffset"`
	SNESOffset int `json:"snesOffset"`
	NumBytes   int `json:"numBytes"`
}

type wireSourceFile struct {
	ID   int    `json:"id"`
	CRC  uint32 `json:"crc"`
	Path string `json:"path"`
}

type wireSourceEntry struct {
	Address uint32 `json:"address"`
	FileID  int    `json:"fileId"`
	Line    int    `json:"line"`
}

type wireResult struct {
	Success       bool             `json:"success"`
	Diagnostics   []wireDiagnostic `json:"diagnostics"`
	Prints        []string         `json:"prints"`
	Labels        []wireLabel      `json:"labels"`
	Defines       []wireDefine     `json:"defines"`
	WrittenBlocks []wireBlock      `json:"writtenBlocks"`
	ROMData       []byte           `json:"romData"`
	MapperID      int              `json:"mapper"`
	SourceFiles   []wireSourceFile `json:"sourceFiles"`
	SourceEntries []wireSourceEntry `json:"sourceEntries"`
}

func (e *External) Assemble(ctx context.Context, opts Options) (Result, error) {
	req := wireRequest{
		PatchPath:       opts.PatchPath,
		ROMData:         opts.ROMData,
		IncludePaths:    opts.IncludePaths,
		StdIncludesPath: opts.StdIncludesPath,
		StdDefinesPath:  opts.StdDefinesPath,
	}
	for _, d := range opts.Defines {
		req.Defines = append(req.Defines, wireDefine{Name: d.Name, Value: d.Value})
	}
	for _, f := range opts.MemoryFiles {
		req.MemoryFiles = append(req.MemoryFiles, wireMemoryFile{Path: f.Path, Contents: f.Contents})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encode assemble request: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Binary, e.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if stdout.Len() == 0 {
		if runErr != nil {
			return Result{}, fmt.Errorf("%s: %w: %s", e.Binary, runErr, stderr.String())
		}
		return Result{}, fmt.Errorf("%s: empty output", e.Binary)
	}

	var wire wireResult
	if err := json.Unmarshal(stdout.Bytes(), &wire); err != nil {
		return Result{}, fmt.Errorf("decode assemble result: %w", err)
	}
	return wire.toResult(), nil
}

func (w wireResult) toResult() Result {
	res := Result{
		Success:  w.Success,
		Prints:   w.Prints,
		ROMData:  w.ROMData,
		MapperID: w.MapperID,
	}
	for _, d := range w.Diagnostics {
		sev := diag.SevError
		if d.Severity == "warning" {
			sev = diag.SevWarning
		}
		res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
			Severity: sev,
			Message:  d.Message,
			File:     d.Filename,
			Line:     d.Line,
			Column:   d.Column,
			Raw:      d.Raw,
		})
	}
	for _, l := range w.Labels {
		res.Labels = append(res.Labels, Label{Name: l.Name, Address: l.Address, Used: l.Used})
	}
	for _, d := range w.Defines {
		res.Defines = append(res.Defines, Define{Name: d.Name, Value: d.Value})
	}
	for _, b := range w.WrittenBlocks {
		res.WrittenBlocks = append(res.WrittenBlocks, WrittenBlock(b))
	}
	for _, f := range w.SourceFiles {
		res.SourceMap.Files = append(res.SourceMap.Files, SourceFile(f))
	}
	for _, en := range w.SourceEntries {
		res.SourceMap.Entries = append(res.SourceMap.Entries, SourceMapEntry(en))
	}
	return res
}
