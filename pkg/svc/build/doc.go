// Package build selects and drives the container image build strategy.
//
// Each strategy (docker, s2i, jib, buildpacks, spring) is a [Backend] in a
// [Table] supplied by the caller. [Select] resolves the strategy once per
// invocation with a fixed priority order and [NewService] wraps the chosen
// backend with the behaviour every strategy shares: skipping images without a
// build configuration, wrapping failures in [ServiceError] and recording the
// outcome in the run summary.
package build
