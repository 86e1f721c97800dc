package lint

// StateOverride pins the register widths at a given address, typically from
// an `; assume m:8` style hint in the source.
type StateOverride struct {
	Address uint32
	MWidth  int // 0 leaves M untouched
	XWidth  int // 0 leaves X untouched
}

// Options configures one lint run. A zero default width means "unknown":
// the walk starts with the corresponding known flag cleared and falls back
// to 1-byte operands for instruction sizing.
type Options struct {
	DefaultMWidthBytes int
	DefaultXWidthBytes int

	WarnUnknownWidth      bool
	WarnBranchOutsideBank bool
	WarnOrgCollision      bool

	StateOverrides []StateOverride
}
