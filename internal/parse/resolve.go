package parse

import (
	"os"
	"path/filepath"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResolveInclude maps an include argument to an absolute path. Relative
// arguments are tried against the including file's directory first, then
// each include directory in order.
func ResolveInclude(arg, baseDir string, includeDirs []string) (string, bool) {
	if filepath.IsAbs(arg) {
		if fileExists(arg) {
			return filepath.Clean(arg), true
		}
		return "", false
	}
	if baseDir != "" {
		if cand := filepath.Join(baseDir, arg); fileExists(cand) {
			return cand, true
		}
	}
	for _, dir := range includeDirs {
		if cand := filepath.Join(dir, arg); fileExists(cand) {
			return cand, true
		}
	}
	return "", false
}

// ResolveIncdir maps an incdir argument to an absolute directory path.
func ResolveIncdir(arg, baseDir string) string {
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg)
	}
	return filepath.Join(baseDir, arg)
}
