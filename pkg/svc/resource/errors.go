package resource

import "errors"

// ErrNoName is returned when neither the project nor its images provide a name.
var ErrNoName = errors.New("cannot derive an application name: set project.artifactId or an image")

// ErrNoResources is returned when nothing was generated and no fragments exist.
var ErrNoResources = errors.New("no resources to write")

// ErrInvalidPort is returned for malformed image ports.
var ErrInvalidPort = errors.New("invalid port")
