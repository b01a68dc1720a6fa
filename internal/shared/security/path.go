// Package security holds checks applied to user supplied file paths.
package security

import (
	"path/filepath"
	"strings"
)

// IsValidPath rejects empty paths, paths containing "..", and paths that
// resolve to the filesystem root.
func IsValidPath(path string) bool {
	if path == "" || strings.Contains(path, "..") {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	clean := filepath.Clean(abs)
	return clean != "" && clean != string(filepath.Separator)
}
