//go:build windows

package connconfig

import (
	"os"
	"path/filepath"
	"strings"
)

// restrictedPrefixes are OS/application-internal directories a resolved
// SQLite path must not fall under on Windows.
func restrictedPrefixesWindows() []string {
	windir := os.Getenv("WINDIR")
	if windir == "" {
		windir = `C:\Windows`
	}
	programFiles := os.Getenv("PROGRAMFILES")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}
	return []string{windir, programFiles}
}

func restricted(path string) bool {
	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = path
	}
	resolved = filepath.Clean(resolved)
	resolvedLower := strings.ToLower(resolved)

	for _, prefix := range restrictedPrefixesWindows() {
		prefix = filepath.Clean(prefix)
		prefixLower := strings.ToLower(prefix)
		if resolvedLower == prefixLower || strings.HasPrefix(resolvedLower, prefixLower+`\`) {
			return true
		}
	}
	return false
}
