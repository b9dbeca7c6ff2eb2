package docker

import (
	"context"
	"io"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/stretchr/testify/mock"
)

// MockDaemonClient is a mock implementation of the DaemonClient interface for testing.
type MockDaemonClient struct {
	mock.Mock
}

// NewMockDaemonClient creates a new MockDaemonClient instance.
func NewMockDaemonClient() *MockDaemonClient {
	return &MockDaemonClient{}
}

// ImageBuild mocks an image build.
func (m *MockDaemonClient) ImageBuild(
	ctx context.Context,
	buildContext io.Reader,
	options build.ImageBuildOptions,
) (build.ImageBuildResponse, error) {
	args := m.Called(ctx, buildContext, options)

	response, ok := args.Get(0).(build.ImageBuildResponse)
	if !ok {
		return build.ImageBuildResponse{}, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return response, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// ImagePush mocks an image push.
func (m *MockDaemonClient) ImagePush(
	ctx context.Context,
	image string,
	options image.PushOptions,
) (io.ReadCloser, error) {
	args := m.Called(ctx, image, options)

	body, ok := args.Get(0).(io.ReadCloser)
	if !ok {
		return nil, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return body, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// ImagePull mocks an image pull.
func (m *MockDaemonClient) ImagePull(
	ctx context.Context,
	refStr string,
	options image.PullOptions,
) (io.ReadCloser, error) {
	args := m.Called(ctx, refStr, options)

	body, ok := args.Get(0).(io.ReadCloser)
	if !ok {
		return nil, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return body, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// ImageTag mocks tagging an image.
func (m *MockDaemonClient) ImageTag(ctx context.Context, source, target string) error {
	args := m.Called(ctx, source, target)

	return args.Error(0) //nolint:wrapcheck // Mock function, wrapping not needed
}

// Close mocks closing the client.
func (m *MockDaemonClient) Close() error {
	args := m.Called()

	return args.Error(0) //nolint:wrapcheck // Mock function, wrapping not needed
}

// Stream returns a daemon progress stream holding the given JSON lines.
func Stream(lines ...string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(strings.Join(lines, "\n")))
}
