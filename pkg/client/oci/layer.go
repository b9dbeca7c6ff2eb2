package oci

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/devantler-tech/kubepack/pkg/fsutil/archive"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/static"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

// NewLayer packages entries into a gzip compressed layer, placing them below
// targetDir. Layers are reproducible for identical input.
func NewLayer(entries []archive.Entry, targetDir string, mediaType types.MediaType) (v1.Layer, error) {
	var compressed bytes.Buffer

	err := archive.Write(&compressed, entries, archive.Options{
		Prefix: strings.TrimPrefix(targetDir, "/"),
		Gzip:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("package layer: %w", err)
	}

	return static.NewLayer(compressed.Bytes(), mediaType), nil
}

// DirectoryLayer packages every file below dir into a layer at targetDir.
func DirectoryLayer(dir, targetDir string, mediaType types.MediaType) (v1.Layer, error) {
	entries, err := archive.ReadDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("read layer source: %w", err)
	}

	return NewLayer(entries, targetDir, mediaType)
}

// LayerMediaType returns the layer media type matching an image manifest media
// type, so appended layers stay consistent with their base image.
func LayerMediaType(manifestMediaType types.MediaType) types.MediaType {
	if manifestMediaType == types.DockerManifestSchema2 {
		return types.DockerLayer
	}

	return types.OCILayer
}
