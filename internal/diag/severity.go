package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevWarning is for advisory diagnostics that never block a build.
	SevWarning Severity = iota
	// SevError is for diagnostics fatal to producing a ROM.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
