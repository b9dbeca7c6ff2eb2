// Package jib assembles images without a container daemon.
//
// The base image is pulled from the pull registry, each assembly directory is
// appended as a layer and the image configuration is applied on top. The result
// is written as a tarball to the per-image build directory and pushed from
// there with the registry API.
package jib
