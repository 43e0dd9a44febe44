// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath.
package fspath

import (
	"fmt"
	"path/filepath"

	"github.com/flowrun/flowrun/pkg/types"
)

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments such as file names from configuration.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Abs wraps filepath.Abs for FilesystemPath.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// ResolveAgainst returns p unchanged when it is absolute and joined below
// base otherwise. Relative settings such as history_file are resolved
// against the launch directory this way.
func ResolveAgainst(base, p types.FilesystemPath) types.FilesystemPath {
	if IsAbs(p) {
		return types.FilesystemPath(filepath.Clean(string(p)))
	}
	return JoinStr(base, string(p))
}
