package v1alpha1

import (
	"fmt"
	"strings"
)

// DefaultTag is the tag assumed when an image reference has none.
const DefaultTag = "latest"

// ImageName is a parsed image reference.
type ImageName struct {
	// Registry is the registry host (empty when the reference carries none).
	Registry string
	// Repository is the repository path without registry, tag or digest.
	Repository string
	// Tag is the image tag (defaults to latest when no digest is set).
	Tag string
	// Digest is the image digest (sha256:...).
	Digest string
}

// NewImageName parses a reference and rejects empty or malformed input.
func NewImageName(reference string) (ImageName, error) {
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" || strings.HasSuffix(trimmed, "/") || strings.HasPrefix(trimmed, "/") ||
		strings.Contains(trimmed, "//") || strings.ContainsAny(trimmed, " \t") {
		return ImageName{}, fmt.Errorf("%w: %q", ErrInvalidImageName, reference)
	}

	return ParseImageName(trimmed), nil
}

// ParseImageName parses a reference of the form [registry/]repository[:tag][@digest].
//
// The first path segment is treated as a registry when it contains "." or ":"
// or equals "localhost".
func ParseImageName(reference string) ImageName {
	var result ImageName

	rest := reference
	if before, digest, found := strings.Cut(rest, "@"); found {
		rest = before
		result.Digest = digest
	}

	lastSlash := strings.LastIndex(rest, "/")
	if colon := strings.LastIndex(rest, ":"); colon > lastSlash {
		result.Tag = rest[colon+1:]
		rest = rest[:colon]
	}

	if first, remainder, found := strings.Cut(rest, "/"); found && IsRegistryHost(first) {
		result.Registry = first
		rest = remainder
	}

	result.Repository = rest

	if result.Tag == "" && result.Digest == "" {
		result.Tag = DefaultTag
	}

	return result
}

// IsRegistryHost reports whether a path segment looks like a registry host.
func IsRegistryHost(segment string) bool {
	return strings.ContainsAny(segment, ".:") || segment == "localhost"
}

// NameWithoutTag returns the repository prefixed with registry (or fallbackRegistry).
func (n ImageName) NameWithoutTag(fallbackRegistry string) string {
	registry := n.Registry
	if registry == "" {
		registry = fallbackRegistry
	}

	if registry == "" {
		return n.Repository
	}

	return registry + "/" + n.Repository
}

// FullName returns the complete reference, using fallbackRegistry when the parsed
// name carries no registry of its own.
func (n ImageName) FullName(fallbackRegistry string) string {
	name := n.NameWithoutTag(fallbackRegistry)

	if n.Tag != "" {
		name += ":" + n.Tag
	}

	if n.Digest != "" {
		name += "@" + n.Digest
	}

	return name
}

// SimpleName returns the last repository path segment.
func (n ImageName) SimpleName() string {
	return n.Repository[strings.LastIndex(n.Repository, "/")+1:]
}

// String returns the reference without adding a registry.
func (n ImageName) String() string {
	return n.FullName("")
}
