package helm

import "errors"

var (
	// ErrNoManifest is returned when no manifest exists to build a chart from.
	ErrNoManifest = errors.New("no manifest found")
	// ErrNoResources is returned when the manifest holds no resources.
	ErrNoResources = errors.New("manifest contains no resources")
	// ErrInvalidChart is returned when the generated chart does not load.
	ErrInvalidChart = errors.New("generated chart is invalid")
	// ErrInvalidRepository is returned for repositories without the oci:// scheme.
	ErrInvalidRepository = errors.New("chart repository must use the oci:// scheme")
	// ErrNoRepository is returned when pushing without a configured repository.
	ErrNoRepository = errors.New("no chart repository configured")
)
