package diag

// Diagnostic is one assembler or lint finding.
//
// File may be empty when the producer could not attribute the finding to a
// source location; such diagnostics are still published, just without a
// position. Line and Column are 1-based; zero means unknown. Raw preserves
// the producer's original output line when there was one.
type Diagnostic struct {
	Severity Severity
	Message  string
	File     string
	Line     int
	Column   int
	Raw      string
}

func New(sev Severity, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Message: msg}
}

func NewError(msg string) Diagnostic {
	return New(SevError, msg)
}

func NewWarning(msg string) Diagnostic {
	return New(SevWarning, msg)
}

// At returns a copy located at file:line:column.
func (d Diagnostic) At(file string, line, column int) Diagnostic {
	d.File = file
	d.Line = line
	d.Column = column
	return d
}
