package docker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// Error definitions for container engine operations.
var (
	// ErrAPIClientNil is returned when apiClient is nil.
	ErrAPIClientNil = errors.New("apiClient cannot be nil")
)

// DaemonClient is the subset of the Docker API used to build and distribute images.
type DaemonClient interface {
	ImageBuild(
		ctx context.Context,
		buildContext io.Reader,
		options build.ImageBuildOptions,
	) (build.ImageBuildResponse, error)
	ImagePush(ctx context.Context, image string, options image.PushOptions) (io.ReadCloser, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ImageTag(ctx context.Context, source, target string) error
	Close() error
}

var _ DaemonClient = (*client.Client)(nil)

// GetDockerClient creates a Docker client using environment configuration.
func GetDockerClient() (*client.Client, error) {
	dockerClient, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return dockerClient, nil
}
