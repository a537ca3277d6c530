//go:build !windows

package connconfig

import (
	"path/filepath"
	"strings"
)

// restrictedPrefixes are OS/application-internal directories a resolved
// SQLite path must not fall under on POSIX systems.
var restrictedPrefixes = []string{
	"/etc", "/boot", "/sys", "/proc", "/dev",
	"/usr/bin", "/usr/sbin", "/bin", "/sbin",
}

func restricted(path string) bool {
	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = path
	}
	resolved = filepath.Clean(resolved)

	for _, prefix := range restrictedPrefixes {
		if resolved == prefix || strings.HasPrefix(resolved, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
