package s2i

import "errors"

var (
	// ErrBuildFailed is returned when an OpenShift build ends in a failed phase.
	ErrBuildFailed = errors.New("openshift build failed")
	// ErrMissingBaseImage is returned when a source build has no base image.
	ErrMissingBaseImage = errors.New("source builds require a base image (build.from)")
	// ErrNoCluster is returned when no cluster connection is configured.
	ErrNoCluster = errors.New("no cluster connection configured")
	// ErrInvalidBuildResponse is returned when instantiatebinary returns no build name.
	ErrInvalidBuildResponse = errors.New("invalid instantiatebinary response")
)
