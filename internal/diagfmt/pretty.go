// Package diagfmt renders diagnostic bags for the CLI: a colorized
// human format, a one-line-per-finding short format and a machine JSON
// format.
package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"z3dk/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	pathColor    = color.New(color.FgCyan)
)

func displayPath(file string, mode PathMode, baseDir string) string {
	if file == "" {
		return "<patch>"
	}
	switch mode {
	case PathModeRelative:
		if baseDir != "" {
			if rel, err := filepath.Rel(baseDir, file); err == nil {
				return rel
			}
		}
	case PathModeBasename:
		return filepath.Base(file)
	}
	return file
}

func severityText(sev diag.Severity, colorize bool) string {
	if !colorize {
		return sev.String()
	}
	if sev == diag.SevError {
		return errorColor.Sprint(sev.String())
	}
	return warningColor.Sprint(sev.String())
}

// Pretty writes one block per diagnostic:
//
//	<path>:<line>:<col>: <severity>: <message>
//
// followed by a summary line. The bag is expected to be sorted.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	errors, warnings := 0, 0
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			errors++
		} else {
			warnings++
		}
		path := displayPath(d.File, opts.PathMode, opts.BaseDir)
		if opts.Color {
			path = pathColor.Sprint(path)
		}
		if d.Line > 0 {
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
				path, d.Line, d.Column, severityText(d.Severity, opts.Color), d.Message)
		} else {
			fmt.Fprintf(w, "%s: %s: %s\n",
				path, severityText(d.Severity, opts.Color), d.Message)
		}
	}
	if errors+warnings > 0 {
		fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", errors, warnings)
	}
}

// Short writes exactly one plain line per diagnostic, grep-friendly.
func Short(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	for _, d := range bag.Items() {
		path := displayPath(d.File, opts.PathMode, opts.BaseDir)
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", path, d.Line, d.Column, d.Severity, d.Message)
	}
}
