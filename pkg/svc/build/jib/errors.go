package jib

import "errors"

// ErrImageNotBuilt is returned when pushing an image whose tarball does not exist.
var ErrImageNotBuilt = errors.New("image tarball not found, build the image first")
