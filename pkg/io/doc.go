// Package io groups the input handling of kubepack. The configmanager
// subpackage loads kubepack.yaml and layers environment and flag overrides
// on top of it.
package io
