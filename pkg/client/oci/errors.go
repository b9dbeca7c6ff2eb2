package oci

import "errors"

var (
	// ErrReferenceRequired indicates that no image reference was provided.
	ErrReferenceRequired = errors.New("image reference is required")
	// ErrInvalidReference indicates that an image reference could not be parsed.
	ErrInvalidReference = errors.New("invalid image reference")
	// ErrInvalidPlatform indicates that a platform string could not be parsed.
	ErrInvalidPlatform = errors.New("invalid platform")
	// ErrLayerNotFound indicates that an artifact does not contain a requested layer.
	ErrLayerNotFound = errors.New("layer not found")
)
