// Package workspace provides path-guarded file operations for the project
// directory the assistant works against.
package workspace

import (
	"errors"
	"path/filepath"
	"strings"
)

// Path validation errors.
var (
	ErrEmptyPath    = errors.New("path cannot be empty")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrPathEscape   = errors.New("path escapes working directory")
)

// ValidatePath validates a relative path for safety.
// It rejects empty paths, absolute paths, and paths that would escape the
// working directory.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if filepath.IsAbs(path) {
		return ErrAbsolutePath
	}

	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return ErrPathEscape
	}

	return nil
}

// ResolvePath safely joins a working directory and a relative path.
// It validates the path and ensures the result stays within the base.
func ResolvePath(base, relativePath string) (string, error) {
	if err := ValidatePath(relativePath); err != nil {
		return "", err
	}

	fullPath := filepath.Join(base, relativePath)

	cleanedBase := filepath.Clean(base)
	cleanedFullPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanedFullPath, cleanedBase+string(filepath.Separator)) &&
		cleanedFullPath != cleanedBase {
		return "", ErrPathEscape
	}

	return fullPath, nil
}
