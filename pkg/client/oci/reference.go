package oci

import (
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
)

// DefaultPlatform is the platform daemonless builds target when none is configured.
const DefaultPlatform = "linux/amd64"

// ParseReference parses an image reference. Registries on loopback and private
// addresses are reached over plain HTTP.
func ParseReference(reference string) (name.Reference, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, ErrReferenceRequired
	}

	ref, err := name.ParseReference(reference, name.WeakValidation)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidReference, reference, err)
	}

	return ref, nil
}

// ParseTag parses a tagged image reference.
func ParseTag(reference string) (name.Tag, error) {
	if strings.TrimSpace(reference) == "" {
		return name.Tag{}, ErrReferenceRequired
	}

	tag, err := name.NewTag(reference, name.WeakValidation)
	if err != nil {
		return name.Tag{}, fmt.Errorf("%w %q: %w", ErrInvalidReference, reference, err)
	}

	return tag, nil
}

// ParsePlatform parses os/arch[/variant]. An empty value yields DefaultPlatform.
func ParsePlatform(platform string) (*v1.Platform, error) {
	if platform == "" {
		platform = DefaultPlatform
	}

	parsed, err := v1.ParsePlatform(platform)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPlatform, platform, err)
	}

	return parsed, nil
}
