// Package s2i builds images inside an OpenShift cluster with binary
// Source-to-Image or Docker builds.
//
// For each image an ImageStream and a binary BuildConfig are ensured, the
// build input is streamed to the BuildConfig's instantiatebinary endpoint and
// the resulting Build is polled until it completes. The image lands in the
// cluster registry, so pushing is a no-op.
package s2i
