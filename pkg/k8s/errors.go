package k8s

import "errors"

// ErrNoResourceMapping is returned when the cluster does not serve the kind of an object.
var ErrNoResourceMapping = errors.New("no resource mapping for kind")
