package docker

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/jsonmessage"
)

// BuildRequest describes a daemon side image build.
type BuildRequest struct {
	// Context is a tar stream holding the Dockerfile and every file it copies.
	Context    io.Reader
	Dockerfile string
	Tags       []string
	BuildArgs  map[string]string
	Labels     map[string]string
	Platform   string
	PullParent bool
	NoCache    bool
	// RegistryAuth maps registry hosts to credentials for pulling base images.
	RegistryAuth map[string]registry.AuthConfig
}

// ImageService builds and distributes images through a daemon, streaming
// progress to Out.
type ImageService struct {
	Client DaemonClient
	Out    io.Writer
}

// NewImageService returns an ImageService writing progress to out.
func NewImageService(apiClient DaemonClient, out io.Writer) (*ImageService, error) {
	if apiClient == nil {
		return nil, ErrAPIClientNil
	}

	if out == nil {
		out = io.Discard
	}

	return &ImageService{Client: apiClient, Out: out}, nil
}

// Build runs an image build and waits for the daemon to finish.
func (s *ImageService) Build(ctx context.Context, request BuildRequest) error {
	buildArgs := make(map[string]*string, len(request.BuildArgs))
	for key, value := range request.BuildArgs {
		buildArgs[key] = &value
	}

	options := build.ImageBuildOptions{
		Tags:        request.Tags,
		Dockerfile:  request.Dockerfile,
		BuildArgs:   buildArgs,
		Labels:      request.Labels,
		Platform:    request.Platform,
		PullParent:  request.PullParent,
		NoCache:     request.NoCache,
		Remove:      true,
		ForceRemove: true,
		AuthConfigs: request.RegistryAuth,
	}

	response, err := s.Client.ImageBuild(ctx, request.Context, options)
	if err != nil {
		return fmt.Errorf("failed to start image build: %w", err)
	}

	err = s.consume(response.Body)
	if err != nil {
		return fmt.Errorf("image build failed: %w", err)
	}

	return nil
}

// Push pushes reference using the given base64 encoded registry auth.
func (s *ImageService) Push(ctx context.Context, reference, encodedAuth string) error {
	body, err := s.Client.ImagePush(ctx, reference, image.PushOptions{RegistryAuth: encodedAuth})
	if err != nil {
		return fmt.Errorf("failed to push %s: %w", reference, err)
	}

	err = s.consume(body)
	if err != nil {
		return fmt.Errorf("failed to push %s: %w", reference, err)
	}

	return nil
}

// Pull pulls reference using the given base64 encoded registry auth.
func (s *ImageService) Pull(ctx context.Context, reference, encodedAuth string) error {
	body, err := s.Client.ImagePull(ctx, reference, image.PullOptions{RegistryAuth: encodedAuth})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", reference, err)
	}

	err = s.consume(body)
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", reference, err)
	}

	return nil
}

// Tag adds target as an additional name for source.
func (s *ImageService) Tag(ctx context.Context, source, target string) error {
	err := s.Client.ImageTag(ctx, source, target)
	if err != nil {
		return fmt.Errorf("failed to tag %s as %s: %w", source, target, err)
	}

	return nil
}

// consume drains a daemon JSON message stream. Errors reported inside the
// stream are returned as errors.
func (s *ImageService) consume(body io.ReadCloser) error {
	defer func() { _ = body.Close() }()

	//nolint:wrapcheck // callers add context
	return jsonmessage.DisplayJSONMessagesStream(body, s.Out, 0, false, nil)
}

// EncodeAuth returns the base64 X-Registry-Auth header value for the credentials.
// Empty credentials encode to an empty string.
func EncodeAuth(username, password, serverAddress string) (string, error) {
	if username == "" && password == "" {
		return "", nil
	}

	encoded, err := registry.EncodeAuthConfig(registry.AuthConfig{
		Username:      username,
		Password:      password,
		ServerAddress: serverAddress,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode registry auth: %w", err)
	}

	return encoded, nil
}
