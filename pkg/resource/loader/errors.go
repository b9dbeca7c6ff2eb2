package loader

import "errors"

var (
	// ErrInvalidDocument is returned for documents that are not Kubernetes objects.
	ErrInvalidDocument = errors.New("invalid manifest document")
	// ErrMissingKind is returned for documents without apiVersion or kind.
	ErrMissingKind = errors.New("resource is missing apiVersion or kind")
	// ErrInvalidListItem is returned when a List item is not an object.
	ErrInvalidListItem = errors.New("list item is not an object")
)
