package summary

import "errors"

// ErrInvalidSummary is returned when a persisted summary cannot be decoded.
var ErrInvalidSummary = errors.New("invalid summary file")
