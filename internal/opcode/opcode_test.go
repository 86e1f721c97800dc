package opcode

import "testing"

func TestDecodeIsTotal(t *testing.T) {
	for op := 0; op < 256; op++ {
		info := Decode(byte(op))
		if info.Mnemonic == "" {
			t.Fatalf("opcode %#02x has no mnemonic", op)
		}
	}
}

func TestInstructionLengthNeverExceedsFour(t *testing.T) {
	// Opcode byte plus operand must fit the longest 65816 encoding.
	for op := 0; op < 256; op++ {
		info := Decode(byte(op))
		size := OperandSize(info.Mode, 2, 2)
		if size < 0 || 1+size > 4 {
			t.Fatalf("opcode %#02x (%s): operand size %d out of range", op, info.Mnemonic, size)
		}
	}
}

func TestOperandSizeFollowsWidths(t *testing.T) {
	tests := []struct {
		mode   Mode
		m, x   int
		want   int
	}{
		{ImmediateM, 1, 2, 1},
		{ImmediateM, 2, 1, 2},
		{ImmediateX, 2, 1, 1},
		{ImmediateX, 1, 2, 2},
		{Immediate8, 2, 2, 1},
		{Immediate16, 1, 1, 2},
		{Relative8, 2, 2, 1},
		{Relative16, 1, 1, 2},
		{AbsoluteLong, 1, 1, 3},
		{BlockMove, 1, 1, 2},
		{Implied, 2, 2, 0},
	}
	for _, tt := range tests {
		if got := OperandSize(tt.mode, tt.m, tt.x); got != tt.want {
			t.Fatalf("OperandSize(%d, m=%d, x=%d) = %d, want %d", tt.mode, tt.m, tt.x, got, tt.want)
		}
	}
}

func TestKnownOpcodes(t *testing.T) {
	tests := []struct {
		op       byte
		mnemonic string
		mode     Mode
	}{
		{0xC2, "REP", Immediate8},
		{0xE2, "SEP", Immediate8},
		{0x28, "PLP", Implied},
		{0x40, "RTI", Implied},
		{0xFB, "XCE", Implied},
		{0xA9, "LDA", ImmediateM},
		{0xA2, "LDX", ImmediateX},
		{0x80, "BRA", Relative8},
		{0x82, "BRL", Relative16},
		{0x5C, "JML", AbsoluteLong},
	}
	for _, tt := range tests {
		info := Decode(tt.op)
		if info.Mnemonic != tt.mnemonic || info.Mode != tt.mode {
			t.Fatalf("Decode(%#02x) = {%s %d}, want {%s %d}", tt.op, info.Mnemonic, info.Mode, tt.mnemonic, tt.mode)
		}
	}
}

func TestModePredicates(t *testing.T) {
	if !Relative8.Relative() || !Relative16.Relative() || Absolute.Relative() {
		t.Fatal("Relative predicate wrong")
	}
	if !ImmediateM.ImmediateM() || ImmediateX.ImmediateM() {
		t.Fatal("ImmediateM predicate wrong")
	}
	if !ImmediateX.ImmediateX() || ImmediateM.ImmediateX() {
		t.Fatal("ImmediateX predicate wrong")
	}
}
