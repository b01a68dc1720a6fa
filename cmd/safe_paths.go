package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/khanhnv2901/seca-traffic/internal/shared/security"
)

var dataFileSuffixes = []string{".json", ".db", ".sqlite", ".sqlite3"}

// validateDataFilePath ensures clean only ever removes regular files that
// look like seca-traffic data files, whatever the config points at.
func validateDataFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("data file path is required")
	}
	switch filepath.Clean(path) {
	case ".", "..", string(filepath.Separator):
		return fmt.Errorf("data file path %q is reserved", path)
	}
	if !security.IsValidPath(path) {
		return fmt.Errorf("data file path %q must not traverse parent directories", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	known := false
	for _, suffix := range dataFileSuffixes {
		if ext == suffix {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("data file %q must end in one of %s", path, strings.Join(dataFileSuffixes, ", "))
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("data file %q is not a regular file", path)
	}
	return nil
}
