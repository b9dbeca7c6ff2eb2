// Package fsutil provides utilities for filesystem operations.
//
// Key functionality:
//   - File writing: WriteFile
//   - Path operations: ExpandHomePath, FindFirst
//
// Subpackages:
//   - archive: deterministic tar and tar.gz packaging of directories
package fsutil
