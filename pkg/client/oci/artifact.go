package oci

import (
	"bytes"
	"encoding/json"
	"fmt"

	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/partial"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

// artifact is an OCI manifest whose config blob is opaque to the registry,
// such as a Helm chart.
type artifact struct {
	config   []byte
	manifest []byte
	layers   []v1.Layer
}

// NewArtifact assembles an OCI artifact from a raw config blob and layers.
// The manifest carries annotations unchanged.
func NewArtifact(
	configMediaType types.MediaType,
	config []byte,
	layers []v1.Layer,
	annotations map[string]string,
) (v1.Image, error) {
	configDigest, configSize, err := v1.SHA256(bytes.NewReader(config))
	if err != nil {
		return nil, fmt.Errorf("digest artifact config: %w", err)
	}

	manifest := v1.Manifest{
		SchemaVersion: 2, //nolint:mnd // OCI manifest schema version
		MediaType:     types.OCIManifestSchema1,
		Config:        v1.Descriptor{MediaType: configMediaType, Size: configSize, Digest: configDigest},
		Layers:        make([]v1.Descriptor, 0, len(layers)),
		Annotations:   annotations,
	}

	for _, layer := range layers {
		descriptor, err := partial.Descriptor(layer)
		if err != nil {
			return nil, fmt.Errorf("describe artifact layer: %w", err)
		}

		manifest.Layers = append(manifest.Layers, *descriptor)
	}

	raw, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal artifact manifest: %w", err)
	}

	//nolint:wrapcheck // partial only fails on malformed cores
	return partial.CompressedToImage(&artifact{config: config, manifest: raw, layers: layers})
}

func (a *artifact) RawConfigFile() ([]byte, error) {
	return a.config, nil
}

func (a *artifact) MediaType() (types.MediaType, error) {
	return types.OCIManifestSchema1, nil
}

func (a *artifact) RawManifest() ([]byte, error) {
	return a.manifest, nil
}

func (a *artifact) LayerByDigest(hash v1.Hash) (partial.CompressedLayer, error) {
	for _, layer := range a.layers {
		digest, err := layer.Digest()
		if err != nil {
			return nil, fmt.Errorf("digest artifact layer: %w", err)
		}

		if digest == hash {
			return layer, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, hash)
}
