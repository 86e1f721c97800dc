package diagfmt

import (
	"encoding/json"
	"io"

	"z3dk/internal/diag"
)

type diagnosticJSON struct {
	Severity string `json:"severity"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
}

type outputJSON struct {
	Diagnostics []diagnosticJSON `json:"diagnostics"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Truncated   bool             `json:"truncated,omitempty"`
}

// JSON writes the bag as a single JSON object.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	out := outputJSON{Diagnostics: []diagnosticJSON{}}
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			out.Errors++
		} else {
			out.Warnings++
		}
		if opts.Max > 0 && len(out.Diagnostics) >= opts.Max {
			out.Truncated = true
			continue
		}
		file := d.File
		if file != "" {
			file = displayPath(file, opts.PathMode, opts.BaseDir)
		}
		out.Diagnostics = append(out.Diagnostics, diagnosticJSON{
			Severity: d.Severity.String(),
			File:     file,
			Line:     d.Line,
			Column:   d.Column,
			Message:  d.Message,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
