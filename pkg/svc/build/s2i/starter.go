package s2i

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"k8s.io/client-go/rest"
)

// BinaryBuildStarter starts a binary build of a BuildConfig.
type BinaryBuildStarter interface {
	// InstantiateBinary streams input to the BuildConfig and returns the name of
	// the started Build.
	InstantiateBinary(ctx context.Context, namespace, buildConfig string, input io.Reader) (string, error)
}

// RESTBuildStarter starts binary builds through the API server.
type RESTBuildStarter struct {
	Client rest.Interface
}

// InstantiateBinary posts input to the instantiatebinary subresource.
func (s *RESTBuildStarter) InstantiateBinary(
	ctx context.Context,
	namespace, buildConfig string,
	input io.Reader,
) (string, error) {
	raw, err := s.Client.Post().
		AbsPath(
			"/apis", BuildConfigResource.Group, BuildConfigResource.Version,
			"namespaces", namespace, BuildConfigResource.Resource, buildConfig, "instantiatebinary",
		).
		SetHeader("Content-Type", "application/octet-stream").
		Body(input).
		Do(ctx).
		Raw()
	if err != nil {
		return "", fmt.Errorf("failed to start binary build of %s: %w", buildConfig, err)
	}

	var started struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
	}

	err = json.Unmarshal(raw, &started)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidBuildResponse, err)
	}

	if started.Metadata.Name == "" {
		return "", ErrInvalidBuildResponse
	}

	return started.Metadata.Name, nil
}
