package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"z3dk/internal/asm"
	"z3dk/internal/diagfmt"
	"z3dk/internal/driver"
	"z3dk/internal/ui"
)

var (
	lintFormat     string
	lintJobs       int
	lintBinary     string
	lintNoProgress bool
)

var lintCmd = &cobra.Command{
	Use:          "lint [roots...]",
	Short:        "Assemble and lint every patch root",
	Long:         "lint assembles each patch root and reports width, branch and layout findings.\nWithout arguments the roots come from z3dk.toml or a main-file scan.",
	SilenceUsage: true,
	RunE:         runLint,
}

func init() {
	lintCmd.Flags().StringVar(&lintFormat, "format", "pretty", "output format (pretty|short|json)")
	lintCmd.Flags().IntVar(&lintJobs, "jobs", 0, "max concurrent roots (0 = one per root)")
	lintCmd.Flags().StringVar(&lintBinary, "binary", "", "assembler engine binary")
	lintCmd.Flags().BoolVar(&lintNoProgress, "no-progress", false, "disable the progress display")
}

func runLint(cmd *cobra.Command, args []string) error {
	switch lintFormat {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, short or json)", lintFormat)
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	roots := args
	if len(roots) == 0 {
		roots, err = driver.DiscoverRoots(dir)
		if err != nil {
			return err
		}
	} else {
		for i, root := range roots {
			if abs, err := filepath.Abs(root); err == nil {
				roots[i] = abs
			}
		}
	}
	if len(roots) == 0 {
		return fmt.Errorf("no analysis roots found under %s", dir)
	}

	opts := driver.LintOptions{Roots: roots, Jobs: lintJobs}
	if lintBinary != "" {
		opts.Assembler = asm.NewExternal(lintBinary)
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	showProgress := !lintNoProgress && !quiet && lintFormat == "pretty" && isTerminal(os.Stdout)

	var res *driver.LintResult
	var lintErr error
	if showProgress {
		events := make(chan driver.Event, 16)
		opts.Events = events
		done := make(chan struct{})
		go func() {
			res, lintErr = driver.Lint(cmd.Context(), dir, opts)
			close(done)
		}()
		display := make([]string, len(roots))
		for i, root := range roots {
			if rel, err := filepath.Rel(dir, root); err == nil && !strings.HasPrefix(rel, "..") {
				display[i] = rel
			} else {
				display[i] = root
			}
		}
		relay := make(chan driver.Event, 16)
		go func() {
			for ev := range events {
				if rel, err := filepath.Rel(dir, ev.File); err == nil && !strings.HasPrefix(rel, "..") {
					ev.File = rel
				}
				relay <- ev
			}
			close(relay)
		}()
		if err := ui.Run("linting", display, relay); err != nil {
			return err
		}
		<-done
	} else {
		res, lintErr = driver.Lint(cmd.Context(), dir, opts)
	}
	if lintErr != nil {
		return lintErr
	}

	maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")
	out := cmd.OutOrStdout()
	switch lintFormat {
	case "json":
		if err := diagfmt.JSON(out, res.Bag, diagfmt.JSONOpts{
			PathMode: diagfmt.PathModeRelative,
			BaseDir:  dir,
			Max:      maxDiags,
		}); err != nil {
			return err
		}
	case "short":
		diagfmt.Short(out, res.Bag, diagfmt.PrettyOpts{
			PathMode: diagfmt.PathModeRelative,
			BaseDir:  dir,
		})
	default:
		diagfmt.Pretty(out, res.Bag, diagfmt.PrettyOpts{
			Color:    colorEnabled(cmd),
			PathMode: diagfmt.PathModeRelative,
			BaseDir:  dir,
		})
	}

	if res.Bag.HasErrors() {
		return fmt.Errorf("lint found errors")
	}
	return nil
}
