// Package opcode holds the 65816 instruction decode table.
//
// Decoding is a total table lookup: all 256 byte values have an entry, so
// callers never deal with an "unknown opcode" case. Operand sizes for the
// immediate-M and immediate-X modes depend on the current accumulator and
// index register widths, which the caller must supply.
package opcode

// Mode is a 65816 addressing mode tag.
type Mode uint8

const (
	Implied Mode = iota
	Immediate8
	Immediate16
	ImmediateM
	ImmediateX
	Relative8
	Relative16
	DirectPage
	DirectPageX
	DirectPageY
	DirectPageIndirect
	DirectPageIndexedIndirect
	DirectPageIndirectIndexedY
	DirectPageIndirectLong
	DirectPageIndirectLongY
	StackRelative
	StackRelativeIndirectY
	Absolute
	AbsoluteX
	AbsoluteY
	AbsoluteLong
	AbsoluteLongX
	AbsoluteIndirect
	AbsoluteIndexedIndirect
	AbsoluteIndirectLong
	BlockMove
)

// Info describes one opcode byte.
type Info struct {
	Mnemonic string
	Mode     Mode
}

// Decode returns the instruction info for an opcode byte.
func Decode(op byte) Info {
	return table[op]
}

// OperandSize returns the operand byte count for mode given the current
// M and X register widths in bytes. Always in [0, 3].
func OperandSize(mode Mode, mWidthBytes, xWidthBytes int) int {
	switch mode {
	case Immediate8, Relative8:
		return 1
	case Immediate16, Relative16:
		return 2
	case ImmediateM:
		return mWidthBytes
	case ImmediateX:
		return xWidthBytes
	case DirectPage, DirectPageX, DirectPageY,
		DirectPageIndirect, DirectPageIndexedIndirect, DirectPageIndirectIndexedY,
		DirectPageIndirectLong, DirectPageIndirectLongY,
		StackRelative, StackRelativeIndirectY:
		return 1
	case Absolute, AbsoluteX, AbsoluteY,
		AbsoluteIndirect, AbsoluteIndexedIndirect, AbsoluteIndirectLong,
		BlockMove:
		return 2
	case AbsoluteLong, AbsoluteLongX:
		return 3
	default:
		return 0
	}
}

// Relative reports whether mode is a PC-relative branch mode.
func (m Mode) Relative() bool {
	return m == Relative8 || m == Relative16
}

// ImmediateM reports whether the operand width follows the M flag.
func (m Mode) ImmediateM() bool {
	return m == ImmediateM
}

// ImmediateX reports whether the operand width follows the X flag.
func (m Mode) ImmediateX() bool {
	return m == ImmediateX
}

var table = [256]Info{
	0x00: {"BRK", Immediate8},
	0x01: {"ORA", DirectPageIndexedIndirect},
	0x02: {"COP", Immediate8},
	0x03: {"ORA", StackRelative},
	0x04: {"TSB", DirectPage},
	0x05: {"ORA", DirectPage},
	0x06: {"ASL", DirectPage},
	0x07: {"ORA", DirectPageIndirectLong},
	0x08: {"PHP", Implied},
	0x09: {"ORA", ImmediateM},
	0x0A: {"ASL", Implied},
	0x0B: {"PHD", Implied},
	0x0C: {"TSB", Absolute},
	0x0D: {"ORA", Absolute},
	0x0E: {"ASL", Absolute},
	0x0F: {"ORA", AbsoluteLong},
	0x10: {"BPL", Relative8},
	0x11: {"ORA", DirectPageIndirectIndexedY},
	0x12: {"ORA", DirectPageIndirect},
	0x13: {"ORA", StackRelativeIndirectY},
	0x14: {"TRB", DirectPage},
	0x15: {"ORA", DirectPageX},
	0x16: {"ASL", DirectPageX},
	0x17: {"ORA", DirectPageIndirectLongY},
	0x18: {"CLC", Implied},
	0x19: {"ORA", AbsoluteY},
	0x1A: {"INC", Implied},
	0x1B: {"TCS", Implied},
	0x1C: {"TRB", Absolute},
	0x1D: {"ORA", AbsoluteX},
	0x1E: {"ASL", AbsoluteX},
	0x1F: {"ORA", AbsoluteLongX},
	0x20: {"JSR", Absolute},
	0x21: {"AND", DirectPageIndexedIndirect},
	0x22: {"JSL", AbsoluteLong},
	0x23: {"AND", StackRelative},
	0x24: {"BIT", DirectPage},
	0x25: {"AND", DirectPage},
	0x26: {"ROL", DirectPage},
	0x27: {"AND", DirectPageIndirectLong},
	0x28: {"PLP", Implied},
	0x29: {"AND", ImmediateM},
	0x2A: {"ROL", Implied},
	0x2B: {"PLD", Implied},
	0x2C: {"BIT", Absolute},
	0x2D: {"AND", Absolute},
	0x2E: {"ROL", Absolute},
	0x2F: {"AND", AbsoluteLong},
	0x30: {"BMI", Relative8},
	0x31: {"AND", DirectPageIndirectIndexedY},
	0x32: {"AND", DirectPageIndirect},
	0x33: {"AND", StackRelativeIndirectY},
	0x34: {"BIT", DirectPageX},
	0x35: {"AND", DirectPageX},
	0x36: {"ROL", DirectPageX},
	0x37: {"AND", DirectPageIndirectLongY},
	0x38: {"SEC", Implied},
	0x39: {"AND", AbsoluteY},
	0x3A: {"DEC", Implied},
	0x3B: {"TSC", Implied},
	0x3C: {"BIT", AbsoluteX},
	0x3D: {"AND", AbsoluteX},
	0x3E: {"ROL", AbsoluteX},
	0x3F: {"AND", AbsoluteLongX},
	0x40: {"RTI", Implied},
	0x41: {"EOR", DirectPageIndexedIndirect},
	0x42: {"WDM", Immediate8},
	0x43: {"EOR", StackRelative},
	0x44: {"MVP", BlockMove},
	0x45: {"EOR", DirectPage},
	0x46: {"LSR", DirectPage},
	0x47: {"EOR", DirectPageIndirectLong},
	0x48: {"PHA", Implied},
	0x49: {"EOR", ImmediateM},
	0x4A: {"LSR", Implied},
	0x4B: {"PHK", Implied},
	0x4C: {"JMP", Absolute},
	0x4D: {"EOR", Absolute},
	0x4E: {"LSR", Absolute},
	0x4F: {"EOR", AbsoluteLong},
	0x50: {"BVC", Relative8},
	0x51: {"EOR", DirectPageIndirectIndexedY},
	0x52: {"EOR", DirectPageIndirect},
	0x53: {"EOR", StackRelativeIndirectY},
	0x54: {"MVN", BlockMove},
	0x55: {"EOR", DirectPageX},
	0x56: {"LSR", DirectPageX},
	0x57: {"EOR", DirectPageIndirectLongY},
	0x58: {"CLI", Implied},
	0x59: {"EOR", AbsoluteY},
	0x5A: {"PHY", Implied},
	0x5B: {"TCD", Implied},
	0x5C: {"JML", AbsoluteLong},
	0x5D: {"EOR", AbsoluteX},
	0x5E: {"LSR", AbsoluteX},
	0x5F: {"EOR", AbsoluteLongX},
	0x60: {"RTS", Implied},
	0x61: {"ADC", DirectPageIndexedIndirect},
	0x62: {"PER", Relative16},
	0x63: {"ADC", StackRelative},
	0x64: {"STZ", DirectPage},
	0x65: {"ADC", DirectPage},
	0x66: {"ROR", DirectPage},
	0x67: {"ADC", DirectPageIndirectLong},
	0x68: {"PLA", Implied},
	0x69: {"ADC", ImmediateM},
	0x6A: {"ROR", Implied},
	0x6B: {"RTL", Implied},
	0x6C: {"JMP", AbsoluteIndirect},
	0x6D: {"ADC", Absolute},
	0x6E: {"ROR", Absolute},
	0x6F: {"ADC", AbsoluteLong},
	0x70: {"BVS", Relative8},
	0x71: {"ADC", DirectPageIndirectIndexedY},
	0x72: {"ADC", DirectPageIndirect},
	0x73: {"ADC", StackRelativeIndirectY},
	0x74: {"STZ", DirectPageX},
	0x75: {"ADC", DirectPageX},
	0x76: {"ROR", DirectPageX},
	0x77: {"ADC", DirectPageIndirectLongY},
	0x78: {"SEI", Implied},
	0x79: {"ADC", AbsoluteY},
	0x7A: {"PLY", Implied},
	0x7B: {"TDC", Implied},
	0x7C: {"JMP", AbsoluteIndexedIndirect},
	0x7D: {"ADC", AbsoluteX},
	0x7E: {"ROR", AbsoluteX},
	0x7F: {"ADC", AbsoluteLongX},
	0x80: {"BRA", Relative8},
	0x81: {"STA", DirectPageIndexedIndirect},
	0x82: {"BRL", Relative16},
	0x83: {"STA", StackRelative},
	0x84: {"STY", DirectPage},
	0x85: {"STA", DirectPage},
	0x86: {"STX", DirectPage},
	0x87: {"STA", DirectPageIndirectLong},
	0x88: {"DEY", Implied},
	0x89: {"BIT", ImmediateM},
	0x8A: {"TXA", Implied},
	0x8B: {"PHB", Implied},
	0x8C: {"STY", Absolute},
	0x8D: {"STA", Absolute},
	0x8E: {"STX", Absolute},
	0x8F: {"STA", AbsoluteLong},
	0x90: {"BCC", Relative8},
	0x91: {"STA", DirectPageIndirectIndexedY},
	0x92: {"STA", DirectPageIndirect},
	0x93: {"STA", StackRelativeIndirectY},
	0x94: {"STY", DirectPageX},
	0x95: {"STA", DirectPageX},
	0x96: {"STX", DirectPageY},
	0x97: {"STA", DirectPageIndirectLongY},
	0x98: {"TYA", Implied},
	0x99: {"STA", AbsoluteY},
	0x9A: {"TXS", Implied},
	0x9B: {"TXY", Implied},
	0x9C: {"STZ", Absolute},
	0x9D: {"STA", AbsoluteX},
	0x9E: {"STZ", AbsoluteX},
	0x9F: {"STA", AbsoluteLongX},
	0xA0: {"LDY", ImmediateX},
	0xA1: {"LDA", DirectPageIndexedIndirect},
	0xA2: {"LDX", ImmediateX},
	0xA3: {"LDA", StackRelative},
	0xA4: {"LDY", DirectPage},
	0xA5: {"LDA", DirectPage},
	0xA6: {"LDX", DirectPage},
	0xA7: {"LDA", DirectPageIndirectLong},
	0xA8: {"TAY", Implied},
	0xA9: {"LDA", ImmediateM},
	0xAA: {"TAX", Implied},
	0xAB: {"PLB", Implied},
	0xAC: {"LDY", Absolute},
	0xAD: {"LDA", Absolute},
	0xAE: {"LDX", Absolute},
	0xAF: {"LDA", AbsoluteLong},
	0xB0: {"BCS", Relative8},
	0xB1: {"LDA", DirectPageIndirectIndexedY},
	0xB2: {"LDA", DirectPageIndirect},
	0xB3: {"LDA", StackRelativeIndirectY},
	0xB4: {"LDY", DirectPageX},
	0xB5: {"LDA", DirectPageX},
	0xB6: {"LDX", DirectPageY},
	0xB7: {"LDA", DirectPageIndirectLongY},
	0xB8: {"CLV", Implied},
	0xB9: {"LDA", AbsoluteY},
	0xBA: {"TSX", Implied},
	0xBB: {"TYX", Implied},
	0xBC: {"LDY", AbsoluteX},
	0xBD: {"LDA", AbsoluteX},
	0xBE: {"LDX", AbsoluteY},
	0xBF: {"LDA", AbsoluteLongX},
	0xC0: {"CPY", ImmediateX},
	0xC1: {"CMP", DirectPageIndexedIndirect},
	0xC2: {"REP", Immediate8},
	0xC3: {"CMP", StackRelative},
	0xC4: {"CPY", DirectPage},
	0xC5: {"CMP", DirectPage},
	0xC6: {"DEC", DirectPage},
	0xC7: {"CMP", DirectPageIndirectLong},
	0xC8: {"INY", Implied},
	0xC9: {"CMP", ImmediateM},
	0xCA: {"DEX", Implied},
	0xCB: {"WAI", Implied},
	0xCC: {"CPY", Absolute},
	0xCD: {"CMP", Absolute},
	0xCE: {"DEC", Absolute},
	0xCF: {"CMP", AbsoluteLong},
	0xD0: {"BNE", Relative8},
	0xD1: {"CMP", DirectPageIndirectIndexedY},
	0xD2: {"CMP", DirectPageIndirect},
	0xD3: {"CMP", StackRelativeIndirectY},
	0xD4: {"PEI", DirectPage},
	0xD5: {"CMP", DirectPageX},
	0xD6: {"DEC", DirectPageX},
	0xD7: {"CMP", DirectPageIndirectLongY},
	0xD8: {"CLD", Implied},
	0xD9: {"CMP", AbsoluteY},
	0xDA: {"PHX", Implied},
	0xDB: {"STP", Implied},
	0xDC: {"JML", AbsoluteIndirectLong},
	0xDD: {"CMP", AbsoluteX},
	0xDE: {"DEC", AbsoluteX},
	0xDF: {"CMP", AbsoluteLongX},
	0xE0: {"CPX", ImmediateX},
	0xE1: {"SBC", DirectPageIndexedIndirect},
	0xE2: {"SEP", Immediate8},
	0xE3: {"SBC", StackRelative},
	0xE4: {"CPX", DirectPage},
	0xE5: {"SBC", DirectPage},
	0xE6: {"INC", DirectPage},
	0xE7: {"SBC", DirectPageIndirectLong},
	0xE8: {"INX", Implied},
	0xE9: {"SBC", ImmediateM},
	0xEA: {"NOP", Implied},
	0xEB: {"XBA", Implied},
	0xEC: {"CPX", Absolute},
	0xED: {"SBC", Absolute},
	0xEE: {"INC", Absolute},
	0xEF: {"SBC", AbsoluteLong},
	0xF0: {"BEQ", Relative8},
	0xF1: {"SBC", DirectPageIndirectIndexedY},
	0xF2: {"SBC", DirectPageIndirect},
	0xF3: {"SBC", StackRelativeIndirectY},
	0xF4: {"PEA", Immediate16},
	0xF5: {"SBC", DirectPageX},
	0xF6: {"INC", DirectPageX},
	0xF7: {"SBC", DirectPageIndirectLongY},
	0xF8: {"SED", Implied},
	0xF9: {"SBC", AbsoluteY},
	0xFA: {"PLX", Implied},
	0xFB: {"XCE", Implied},
	0xFC: {"JSR", AbsoluteIndexedIndirect},
	0xFD: {"SBC", AbsoluteX},
	0xFE: {"INC", AbsoluteX},
	0xFF: {"SBC", AbsoluteLongX},
}
