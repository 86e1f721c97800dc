package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"z3dk/internal/diag"
)

func testBag() *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError("ORG collision: overlap").At("/proj/main.asm", 3, 1))
	bag.Add(diag.NewWarning("Immediate size depends on M flag (unknown state)").At("/proj/lib/sub.asm", 7, 1))
	bag.Add(diag.NewWarning("assembler produced no output"))
	bag.Sort()
	return bag
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, testBag(), PrettyOpts{Color: false})
	out := buf.String()

	for _, want := range []string{
		"/proj/main.asm:3:1: error: ORG collision: overlap",
		"/proj/lib/sub.asm:7:1: warning: Immediate size depends on M flag (unknown state)",
		"<patch>: warning: assembler produced no output",
		"1 error(s), 2 warning(s)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrettyRelativePaths(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, testBag(), PrettyOpts{PathMode: PathModeRelative, BaseDir: "/proj"})
	if !strings.Contains(buf.String(), "lib/sub.asm:7:1:") {
		t.Fatalf("relative path not applied:\n%s", buf.String())
	}
}

func TestShortOneLinePerFinding(t *testing.T) {
	var buf bytes.Buffer
	Short(&buf, testBag(), PrettyOpts{})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %v", lines)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, testBag(), JSONOpts{}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out struct {
		Diagnostics []struct {
			Severity string `json:"severity"`
			File     string `json:"file"`
			Line     int    `json:"line"`
			Message  string `json:"message"`
		} `json:"diagnostics"`
		Errors   int `json:"errors"`
		Warnings int `json:"warnings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Diagnostics) != 3 || out.Errors != 1 || out.Warnings != 2 {
		t.Fatalf("output = %+v", out)
	}
}

func TestJSONTruncation(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, testBag(), JSONOpts{Max: 1}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out struct {
		Diagnostics []json.RawMessage `json:"diagnostics"`
		Truncated   bool              `json:"truncated"`
		Errors      int               `json:"errors"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Diagnostics) != 1 || !out.Truncated || out.Errors != 1 {
		t.Fatalf("output = %+v", out)
	}
}
