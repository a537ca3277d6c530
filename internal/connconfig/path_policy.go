package connconfig

import (
	"path/filepath"
	"strings"
)

var allowedExtensions = map[string]bool{
	".db": true, ".db2": true, ".db3": true, ".sdb": true,
	".sqlite": true, ".sqlite2": true, ".sqlite3": true, ".s3db": true,
	".sql": true, ".dump": true, ".backup": true,
	".gz": true, ".zip": true, ".bz2": true,
}

// ValidatePath applies the SQLite file-path policy: reserved in-memory
// forms pass untouched, everything else is checked for null bytes, `..`
// traversal, an allowed extension, and residence outside a restricted
// directory.
func ValidatePath(path string) error {
	if path == "" {
		return &Error{Reason: "sqlite path is empty"}
	}
	if path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
		return nil
	}
	if strings.Contains(path, "\x00") {
		return &Error{Reason: "sqlite path contains a null byte"}
	}
	if strings.Contains(path, "..") {
		return &Error{Reason: "sqlite path contains a parent-directory reference"}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return &Error{Reason: "sqlite path extension is not in the allowed list"}
	}

	if restricted(path) {
		return &Error{Reason: "sqlite path lies under a restricted directory"}
	}

	return nil
}
