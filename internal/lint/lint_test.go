package lint

import (
	"strings"
	"testing"

	"z3dk/internal/asm"
	"z3dk/internal/diag"
)

func runLint(t *testing.T, res *asm.Result, opts Options) []diag.Diagnostic {
	t.Helper()
	bag := diag.NewBag(50)
	Run(res, opts, diag.BagReporter{Bag: bag})
	return bag.Items()
}

func singleBlock(code []byte, snes int) *asm.Result {
	return &asm.Result{
		Success: true,
		ROMData: code,
		WrittenBlocks: []asm.WrittenBlock{
			{PCOffset: 0, SNESOffset: snes, NumBytes: len(code)},
		},
	}
}

func TestWidthTrackingThroughRepSep(t *testing.T) {
	// REP #$30 widens both; SEP #$20 narrows M only. The walk only stays
	// aligned if each immediate is sized from the tracked state, so a
	// misaligned warning address would expose a transition bug.
	code := []byte{
		0xC2, 0x30, // REP #$30          -> m=2 x=2
		0xA9, 0x11, 0x22, // LDA #$2211  (2-byte immediate)
		0xE2, 0x20, // SEP #$20          -> m=1 x=2
		0xA9, 0x33, // LDA #$33          (1-byte immediate)
		0xA2, 0x44, 0x55, // LDX #$5544  (still 2-byte immediate)
		0x28,       // PLP               -> both unknown
		0xA9, 0x66, // LDA #$66          -> warning here
	}
	res := singleBlock(code, 0x8000)
	res.SourceMap = asm.SourceMap{
		Files:   []asm.SourceFile{{ID: 0, Path: "main.asm"}},
		Entries: []asm.SourceMapEntry{{Address: 0x800D, FileID: 0, Line: 42}},
	}

	diags := runLint(t, res, Options{
		DefaultMWidthBytes: 1,
		DefaultXWidthBytes: 1,
		WarnUnknownWidth:   true,
	})
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	d := diags[0]
	if d.Severity != diag.SevWarning || !strings.Contains(d.Message, "M flag") {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if d.File != "main.asm" || d.Line != 42 {
		t.Fatalf("diagnostic not attributed to source: %+v", d)
	}
}

func TestUnknownStateAfterRTI(t *testing.T) {
	code := []byte{
		0xC2, 0x30, // REP #$30
		0x40,       // RTI -> both unknown
		0xA2, 0x01, // LDX #$01 -> warning (X unknown)
	}
	diags := runLint(t, singleBlock(code, 0x8000), Options{
		DefaultMWidthBytes: 1,
		DefaultXWidthBytes: 1,
		WarnUnknownWidth:   true,
	})
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "X flag") {
		t.Fatalf("got %v, want one X-flag warning", diags)
	}
}

func TestXCEResetsWidths(t *testing.T) {
	code := []byte{
		0x28,       // PLP -> unknown
		0xFB,       // XCE -> m=1 x=1, known
		0xA9, 0x01, // LDA #$01 -> no warning
	}
	diags := runLint(t, singleBlock(code, 0x8000), Options{
		DefaultMWidthBytes: 1,
		DefaultXWidthBytes: 1,
		WarnUnknownWidth:   true,
	})
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}

func TestUnknownDefaultWidthWarnsImmediately(t *testing.T) {
	code := []byte{0xA9, 0x01} // LDA #$01 with unconfigured M width
	diags := runLint(t, singleBlock(code, 0x8000), Options{
		DefaultMWidthBytes: 0,
		DefaultXWidthBytes: 1,
		WarnUnknownWidth:   true,
	})
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "M flag") {
		t.Fatalf("got %v, want one M-flag warning", diags)
	}
}

func TestStateOverrideSilencesUnknownWidth(t *testing.T) {
	code := []byte{0xA9, 0x11, 0x22} // LDA #$2211 under an assume m:16 hint
	diags := runLint(t, singleBlock(code, 0x8000), Options{
		DefaultMWidthBytes: 0,
		DefaultXWidthBytes: 0,
		WarnUnknownWidth:   true,
		StateOverrides:     []StateOverride{{Address: 0x8000, MWidth: 2}},
	})
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}

func TestBranchLeavingBank(t *testing.T) {
	// BRA -3 at $008000 resolves to $007FFF, below the $8000 floor.
	code := []byte{0x80, 0xFD}
	diags := runLint(t, singleBlock(code, 0x8000), Options{
		DefaultMWidthBytes:    1,
		DefaultXWidthBytes:    1,
		WarnBranchOutsideBank: true,
	})
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
	}
	if !strings.Contains(diags[0].Message, "$7FFF") {
		t.Fatalf("unexpected target in %q", diags[0].Message)
	}
}

func TestBranchWithinBankIsQuiet(t *testing.T) {
	code := []byte{0x80, 0x10} // BRA +16 -> $8012
	diags := runLint(t, singleBlock(code, 0x8000), Options{
		DefaultMWidthBytes:    1,
		DefaultXWidthBytes:    1,
		WarnBranchOutsideBank: true,
	})
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}

func TestBranchPastBankTop(t *testing.T) {
	// BRL +$10 at $00FFF0: $FFF0 + 3 + $10 = $10003, past the bank top.
	code := []byte{0x82, 0x10, 0x00}
	diags := runLint(t, singleBlock(code, 0xFFF0), Options{
		DefaultMWidthBytes:    1,
		DefaultXWidthBytes:    1,
		WarnBranchOutsideBank: true,
	})
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "$0003") {
		t.Fatalf("got %v, want one warning targeting $0003", diags)
	}
}

func TestOrgCollision(t *testing.T) {
	rom := make([]byte, 0x30)
	overlapping := []asm.WrittenBlock{
		{PCOffset: 0x00, SNESOffset: 0x8000, NumBytes: 0x10},
		{PCOffset: 0x0F, SNESOffset: 0x800F, NumBytes: 0x11},
	}
	touching := []asm.WrittenBlock{
		{PCOffset: 0x00, SNESOffset: 0x8000, NumBytes: 0x10},
		{PCOffset: 0x10, SNESOffset: 0x8010, NumBytes: 0x10},
	}
	opts := Options{DefaultMWidthBytes: 1, DefaultXWidthBytes: 1, WarnOrgCollision: true}

	diags := runLint(t, &asm.Result{ROMData: rom, WrittenBlocks: overlapping}, opts)
	if len(diags) != 1 || diags[0].Severity != diag.SevError {
		t.Fatalf("overlapping blocks: got %v, want one error", diags)
	}

	diags = runLint(t, &asm.Result{ROMData: rom, WrittenBlocks: touching}, opts)
	if len(diags) != 0 {
		t.Fatalf("touching blocks: got %v, want none", diags)
	}
}

func TestOrgCollisionOrderIndependent(t *testing.T) {
	rom := make([]byte, 0x30)
	blocks := []asm.WrittenBlock{
		{PCOffset: 0x00, SNESOffset: 0x8000, NumBytes: 0x10},
		{PCOffset: 0x0F, SNESOffset: 0x800F, NumBytes: 0x11},
	}
	reversed := []asm.WrittenBlock{blocks[1], blocks[0]}
	opts := Options{DefaultMWidthBytes: 1, DefaultXWidthBytes: 1, WarnOrgCollision: true}

	a := runLint(t, &asm.Result{ROMData: rom, WrittenBlocks: blocks}, opts)
	b := runLint(t, &asm.Result{ROMData: rom, WrittenBlocks: reversed}, opts)
	if len(a) != 1 || len(b) != 1 || a[0].Message != b[0].Message {
		t.Fatalf("collision result depends on block order: %v vs %v", a, b)
	}
}

func TestPartialTrailingBytesIgnored(t *testing.T) {
	// A 3-byte LDA #$ immediate truncated after one operand byte: the walk
	// must stop rather than read past the block.
	code := []byte{0xC2, 0x20, 0xA9, 0x11}
	diags := runLint(t, singleBlock(code, 0x8000), Options{
		DefaultMWidthBytes: 1,
		DefaultXWidthBytes: 1,
		WarnUnknownWidth:   true,
	})
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}

func TestChecksIndependentlyToggleable(t *testing.T) {
	code := []byte{0x28, 0xA9, 0x66, 0x80, 0x70} // PLP; LDA #; BRA +$70 (leaves bank)
	res := singleBlock(code, 0x8000)

	diags := runLint(t, res, Options{DefaultMWidthBytes: 1, DefaultXWidthBytes: 1})
	if len(diags) != 0 {
		t.Fatalf("all checks off: got %v, want none", diags)
	}

	diags = runLint(t, res, Options{
		DefaultMWidthBytes: 1, DefaultXWidthBytes: 1, WarnUnknownWidth: true,
	})
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "M flag") {
		t.Fatalf("width check only: got %v", diags)
	}
}

func TestEmptyROMProducesNothing(t *testing.T) {
	diags := runLint(t, &asm.Result{}, Options{WarnOrgCollision: true, WarnUnknownWidth: true})
	if len(diags) != 0 {
		t.Fatalf("got %v, want none", diags)
	}
}
