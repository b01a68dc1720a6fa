package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/khanhnv2901/seca-traffic/internal/infrastructure/persistence/codec"
	"github.com/khanhnv2901/seca-traffic/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
	"github.com/khanhnv2901/seca-traffic/internal/shared/security"
)

// writeJSON marshals v and replaces path with it through a temp file in the
// same directory.
func writeJSON(path string, v any) error {
	if !security.IsValidPath(path) {
		return fmt.Errorf("invalid file path: %s", path)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		_ = tmp.Close()
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := tmp.Chmod(constants.DefaultFilePerm); err != nil {
		return fmt.Errorf("chmod temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to save data file: %w", err)
	}
	success = true
	return nil
}

// readJSON loads path into v after checking its format_version.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", sharedErrors.ErrDataFileNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	var header struct {
		FormatVersion string `json:"format_version"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("%w: %s: %v", sharedErrors.ErrCorruptData, path, err)
	}
	if err := codec.CheckVersion(header.FormatVersion); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", sharedErrors.ErrCorruptData, path, err)
	}
	return nil
}
