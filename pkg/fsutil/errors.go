package fsutil

import "errors"

// ErrEmptyOutputPath is returned when a write is requested without a target path.
var ErrEmptyOutputPath = errors.New("output path cannot be empty")

const (
	dirPermUserGroupRX = 0o750
	filePermShared     = 0o644
)
