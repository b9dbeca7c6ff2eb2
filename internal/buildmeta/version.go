// Package buildmeta holds the version information set at link time:
//
//	go build -ldflags="-X github.com/devantler-tech/kubepack/internal/buildmeta.Version=v1.0.0"
//
//nolint:gochecknoglobals
package buildmeta

var (
	// Version is the release version.
	Version = "dev"
	// Commit is the Git SHA the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
