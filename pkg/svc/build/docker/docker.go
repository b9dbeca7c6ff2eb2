package docker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	dockerclient "github.com/devantler-tech/kubepack/pkg/client/docker"
	"github.com/devantler-tech/kubepack/pkg/fsutil/archive"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
	"github.com/devantler-tech/kubepack/pkg/svc/registryauth"
	"github.com/docker/docker/api/types/registry"
)

// ContextArchiveName is the file the build context is archived to.
const ContextArchiveName = "docker-build.tar"

const dirPermissions = 0o750

// ImageServiceFactory returns the daemon image service. It is called at most
// once, on first use.
type ImageServiceFactory func() (*dockerclient.ImageService, error)

// Options configure the docker strategy.
type Options struct {
	Config        v1alpha1.BuildServiceConfig
	BaseDirectory string
	PullRegistry  *v1alpha1.RegistryConfig
	ImageService  ImageServiceFactory
	Credentials   *registryauth.Resolver
	Logger        notify.Logger
}

// Strategy builds and pushes images through a Docker daemon.
type Strategy struct {
	opts    Options
	service *dockerclient.ImageService
}

// New returns a docker Strategy.
func New(opts Options) *Strategy {
	if opts.Logger == nil {
		opts.Logger = notify.Discard()
	}

	if opts.Credentials == nil {
		opts.Credentials = registryauth.NewResolver(opts.Logger)
	}

	return &Strategy{opts: opts}
}

// Backend returns the strategy as a build table entry.
func (s *Strategy) Backend() build.Backend {
	return build.Backend{Build: s.Build, Push: s.Push}
}

// Build archives the build context of image and builds it on the daemon.
func (s *Strategy) Build(ctx context.Context, image *v1alpha1.ImageConfiguration) error {
	service, err := s.imageService()
	if err != nil {
		return err
	}

	image, pullRegistry := s.withPullRegistry(image)

	buildContext, err := build.NewContext(image, s.opts.BaseDirectory)
	if err != nil {
		return err
	}

	contextPath := build.ArtifactPath(s.opts.Config.BuildDirectory, image, ContextArchiveName)

	err = writeContext(contextPath, buildContext)
	if err != nil {
		return err
	}

	//nolint:gosec // path is derived from the build directory
	contextFile, err := os.Open(contextPath)
	if err != nil {
		return fmt.Errorf("failed to open build context: %w", err)
	}

	defer func() { _ = contextFile.Close() }()

	registryAuth, err := s.pullAuth(pullRegistry)
	if err != nil {
		return err
	}

	//nolint:wrapcheck // the image service adds context
	return service.Build(ctx, dockerclient.BuildRequest{
		Context:      contextFile,
		Dockerfile:   buildContext.Dockerfile,
		Tags:         build.PushTargets(image, "", false),
		BuildArgs:    image.Build.Args,
		Labels:       image.Build.Labels,
		Platform:     s.platform(image),
		PullParent:   s.opts.Config.ForcePull || s.opts.Config.PullPolicy == v1alpha1.PullAlways,
		RegistryAuth: registryAuth,
	})
}

// Push pushes image and its additional tags to the resolved push registry.
// Local images are tagged with the registry qualified name first.
func (s *Strategy) Push(
	ctx context.Context,
	image *v1alpha1.ImageConfiguration,
	request build.PushRequest,
) error {
	service, err := s.imageService()
	if err != nil {
		return err
	}

	registryHost := registryauth.ResolveRegistry(true, image, request.RegistryConfig)

	credentials, err := s.opts.Credentials.ForRegistry(request.RegistryConfig, true, registryHost)
	if err != nil {
		return fmt.Errorf("failed to resolve push credentials: %w", err)
	}

	encodedAuth, err := credentials.DockerAuth()
	if err != nil {
		return err
	}

	sources := build.PushTargets(image, "", request.SkipTag)
	targets := build.PushTargets(image, registryHost, request.SkipTag)

	for index, target := range targets {
		if sources[index] != target {
			err = service.Tag(ctx, sources[index], target)
			if err != nil {
				return err
			}
		}

		s.opts.Logger.Infof("pushing %s", target)

		err = build.PushWithRetry(ctx, s.opts.Logger, request.Retries, target, func(ctx context.Context) error {
			return service.Push(ctx, target, encodedAuth)
		})
		if err != nil {
			return registryauth.ExplainAuthFailure(err, credentials)
		}
	}

	return nil
}

func (s *Strategy) imageService() (*dockerclient.ImageService, error) {
	if s.service != nil {
		return s.service, nil
	}

	if s.opts.ImageService == nil {
		return nil, dockerclient.ErrAPIClientNil
	}

	service, err := s.opts.ImageService()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the docker daemon: %w", err)
	}

	s.service = service

	return service, nil
}

// withPullRegistry qualifies the base image of generated Dockerfiles with the
// pull registry. It returns the image to build and the base image registry.
func (s *Strategy) withPullRegistry(
	image *v1alpha1.ImageConfiguration,
) (*v1alpha1.ImageConfiguration, string) {
	pullRegistry := registryauth.ResolveRegistry(false, image, s.opts.PullRegistry)
	if image.Build.From == "" || image.Build.Dockerfile != "" {
		return image, pullRegistry
	}

	qualified := image.DeepCopy()
	qualified.Build.From = v1alpha1.ParseImageName(image.Build.From).FullName(pullRegistry)

	return qualified, pullRegistry
}

func (s *Strategy) pullAuth(pullRegistry string) (map[string]registry.AuthConfig, error) {
	credentials, err := s.opts.Credentials.ForRegistry(s.opts.PullRegistry, false, pullRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pull credentials: %w", err)
	}

	if credentials.IsAnonymous() {
		return nil, nil //nolint:nilnil // anonymous pulls send no auth configs
	}

	return map[string]registry.AuthConfig{
		credentials.Registry: {
			Username:      credentials.Username,
			Password:      credentials.Password,
			IdentityToken: credentials.IdentityToken,
			ServerAddress: credentials.Registry,
		},
	}, nil
}

func (s *Strategy) platform(image *v1alpha1.ImageConfiguration) string {
	platforms := image.Build.Platforms
	if len(platforms) == 0 {
		return ""
	}

	if len(platforms) > 1 {
		s.opts.Logger.Warnf(
			"%s: the docker daemon builds one platform at a time, building %s only",
			image.Description(), platforms[0],
		)
	}

	return platforms[0]
}

func writeContext(path string, buildContext *build.Context) error {
	err := os.MkdirAll(filepath.Dir(path), dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	//nolint:gosec // path is derived from the build directory
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create build context archive: %w", err)
	}

	err = archive.Write(file, buildContext.Entries, archive.Options{})
	if err != nil {
		_ = file.Close()

		return fmt.Errorf("failed to archive build context: %w", err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("failed to write build context archive: %w", err)
	}

	return nil
}
