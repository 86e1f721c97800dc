// Package lint implements the instruction-level width dataflow analysis.
//
// The walk never guesses where code lives: it scans exactly the byte ranges
// the assembler reported as written. Each written block is analyzed as an
// independent flow unit, because blocks may be reached from different call
// sites and carry no width state across block boundaries.
package lint

import (
	"fmt"
	"sort"

	"fortio.org/safecast"

	"z3dk/internal/asm"
	"z3dk/internal/diag"
	"z3dk/internal/opcode"
)

type widthState struct {
	mWidth int
	xWidth int
	mKnown bool
	xKnown bool
}

// Run lints an assemble result and reports findings to r. Diagnostics with
// a resolvable address are annotated with filename/line through the source
// index; the rest are reported without a location, never dropped.
func Run(res *asm.Result, opts Options, r diag.Reporter) {
	if len(res.ROMData) == 0 {
		return
	}
	sources := asm.NewSourceIndex(res.SourceMap)

	if opts.WarnOrgCollision {
		checkOrgCollisions(res.WrittenBlocks, sources, r)
	}

	for _, block := range res.WrittenBlocks {
		walkBlock(res.ROMData, block, opts, sources, r)
	}
}

func report(r diag.Reporter, sev diag.Severity, msg string, addr uint32, sources *asm.SourceIndex) {
	d := diag.New(sev, msg)
	if entry, ok := sources.Lookup(addr); ok {
		if path, ok := sources.FileForID(entry.FileID); ok {
			d.File = path
		}
		d.Line = entry.Line
		d.Column = 1
	}
	r.Report(d)
}

type addrRange struct {
	start uint32
	end   uint32 // exclusive
}

// checkOrgCollisions reports every pairwise overlap between written ranges
// exactly once. Sorting by (start, end) makes the result independent of the
// input block order; touching ranges are not collisions.
func checkOrgCollisions(blocks []asm.WrittenBlock, sources *asm.SourceIndex, r diag.Reporter) {
	ranges := make([]addrRange, 0, len(blocks))
	for _, block := range blocks {
		if block.NumBytes <= 0 {
			continue
		}
		start, err := safecast.Conv[uint32](block.SNESOffset)
		if err != nil {
			continue
		}
		size, err := safecast.Conv[uint32](block.NumBytes)
		if err != nil {
			continue
		}
		ranges = append(ranges, addrRange{start: start, end: start + size})
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].start != ranges[j].start {
			return ranges[i].start < ranges[j].start
		}
		return ranges[i].end < ranges[j].end
	})
	for i := 1; i < len(ranges); i++ {
		prev, curr := ranges[i-1], ranges[i]
		if curr.start < prev.end {
			msg := fmt.Sprintf("ORG collision: overlap between $%06X-$%06X and $%06X-$%06X",
				prev.start, prev.end-1, curr.start, curr.end-1)
			report(r, diag.SevError, msg, curr.start, sources)
		}
	}
}

func walkBlock(rom []byte, block asm.WrittenBlock, opts Options, sources *asm.SourceIndex, r diag.Reporter) {
	if block.NumBytes <= 0 {
		return
	}
	pc := block.PCOffset
	end := block.PCOffset + block.NumBytes
	if pc < 0 || end > len(rom) {
		return
	}
	snes, err := safecast.Conv[uint32](block.SNESOffset)
	if err != nil {
		return
	}

	state := widthState{
		mWidth: max(1, opts.DefaultMWidthBytes),
		xWidth: max(1, opts.DefaultXWidthBytes),
		mKnown: opts.DefaultMWidthBytes > 0,
		xKnown: opts.DefaultXWidthBytes > 0,
	}

	for pc < end {
		for _, ov := range opts.StateOverrides {
			if ov.Address != snes {
				continue
			}
			if ov.MWidth > 0 {
				state.mWidth = ov.MWidth
				state.mKnown = true
			}
			if ov.XWidth > 0 {
				state.xWidth = ov.XWidth
				state.xKnown = true
			}
		}

		info := opcode.Decode(rom[pc])

		mWidth := state.mWidth
		if !state.mKnown {
			mWidth = max(1, opts.DefaultMWidthBytes)
		}
		xWidth := state.xWidth
		if !state.xKnown {
			xWidth = max(1, opts.DefaultXWidthBytes)
		}
		operandSize := opcode.OperandSize(info.Mode, mWidth, xWidth)

		// Partial trailing bytes are not an instruction; stop the walk.
		if pc+1+operandSize > end {
			break
		}

		if opts.WarnUnknownWidth {
			if info.Mode.ImmediateM() && !state.mKnown {
				report(r, diag.SevWarning,
					"Immediate size depends on M flag (unknown state)", snes, sources)
			}
			if info.Mode.ImmediateX() && !state.xKnown {
				report(r, diag.SevWarning,
					"Immediate size depends on X flag (unknown state)", snes, sources)
			}
		}

		if opts.WarnBranchOutsideBank && info.Mode.Relative() {
			var offset int32
			if info.Mode == opcode.Relative8 {
				offset = int32(int8(rom[pc+1]))
			} else {
				lo := uint16(rom[pc+1])
				hi := uint16(rom[pc+2])
				offset = int32(int16(hi<<8 | lo))
			}
			// Branch displacement wraps within the current 64KB bank on
			// this architecture; a target outside $8000-$FFFF is a hazard.
			base := int32(snes & 0xFFFF)
			target := base + int32(1+operandSize) + offset
			if target < 0x8000 || target > 0xFFFF {
				msg := fmt.Sprintf("Branch target leaves current bank (target $%04X)", uint16(target&0xFFFF))
				report(r, diag.SevWarning, msg, snes, sources)
			}
		}

		switch {
		case info.Mnemonic == "REP" && operandSize == 1:
			mask := rom[pc+1]
			if mask&0x20 != 0 {
				state.mWidth = 2
				state.mKnown = true
			}
			if mask&0x10 != 0 {
				state.xWidth = 2
				state.xKnown = true
			}
		case info.Mnemonic == "SEP" && operandSize == 1:
			mask := rom[pc+1]
			if mask&0x20 != 0 {
				state.mWidth = 1
				state.mKnown = true
			}
			if mask&0x10 != 0 {
				state.xWidth = 1
				state.xKnown = true
			}
		case info.Mnemonic == "PLP" || info.Mnemonic == "RTI":
			// Flags come back from an opaque stack value the analysis
			// cannot see.
			state.mKnown = false
			state.xKnown = false
		case info.Mnemonic == "XCE":
			state.mWidth = 1
			state.xWidth = 1
			state.mKnown = true
			state.xKnown = true
		}

		pc += 1 + operandSize
		snes += uint32(1 + operandSize)
	}
}
