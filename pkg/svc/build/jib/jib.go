package jib

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/client/oci"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
	"github.com/devantler-tech/kubepack/pkg/svc/registryauth"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/google/go-containerregistry/pkg/v1/types"
)

const dirPermissions = 0o750

// Options configure the jib strategy.
type Options struct {
	Config        v1alpha1.BuildServiceConfig
	BaseDirectory string
	PullRegistry  *v1alpha1.RegistryConfig
	Credentials   *registryauth.Resolver
	Logger        notify.Logger
}

// Strategy builds image tarballs and pushes them with the registry API.
type Strategy struct {
	opts Options
}

// New returns a jib Strategy.
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

// TarballName returns the image tarball file name for platform.
func TarballName(platform *v1.Platform) string {
	return fmt.Sprintf("jib-image.%s-%s.tar", platform.OS, platform.Architecture)
}

// TarballPath returns where the image tarball of image is written.
func (s *Strategy) TarballPath(image *v1alpha1.ImageConfiguration) (string, error) {
	platform, err := s.platform(image)
	if err != nil {
		return "", err
	}

	return build.ArtifactPath(s.opts.Config.BuildDirectory, image, TarballName(platform)), nil
}

// Build assembles image and writes it to its tarball.
func (s *Strategy) Build(ctx context.Context, image *v1alpha1.ImageConfiguration) error {
	platform, err := s.platform(image)
	if err != nil {
		return err
	}

	base, err := s.baseImage(ctx, image, platform)
	if err != nil {
		return err
	}

	img, err := s.appendAssemblies(base, image.Build)
	if err != nil {
		return err
	}

	img, err = configure(img, image)
	if err != nil {
		return err
	}

	ref, err := oci.ParseReference(image.Name)
	if err != nil {
		return err
	}

	path := build.ArtifactPath(s.opts.Config.BuildDirectory, image, TarballName(platform))

	err = os.MkdirAll(filepath.Dir(path), dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}

	err = tarball.WriteToFile(path, ref, img)
	if err != nil {
		return fmt.Errorf("failed to write image tarball: %w", err)
	}

	s.opts.Logger.Infof("%s: image tarball written to %s", image.Description(), path)

	return nil
}

// Push loads the image tarball and writes it to the resolved push registry.
func (s *Strategy) Push(
	ctx context.Context,
	image *v1alpha1.ImageConfiguration,
	request build.PushRequest,
) error {
	path, err := s.TarballPath(image)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrImageNotBuilt, path)
	}

	img, err := tarball.ImageFromPath(path, nil)
	if err != nil {
		return fmt.Errorf("failed to load image tarball: %w", err)
	}

	registryHost := registryauth.ResolveRegistry(true, image, request.RegistryConfig)

	credentials, err := s.opts.Credentials.ForRegistry(request.RegistryConfig, true, registryHost)
	if err != nil {
		return fmt.Errorf("failed to resolve push credentials: %w", err)
	}

	for index, target := range build.PushTargets(image, registryHost, request.SkipTag) {
		s.opts.Logger.Infof("pushing %s", target)

		err = build.PushWithRetry(ctx, s.opts.Logger, request.Retries, target, func(ctx context.Context) error {
			if index == 0 {
				return pushImage(ctx, target, img, credentials)
			}

			return tagImage(ctx, target, img, credentials)
		})
		if err != nil {
			return registryauth.ExplainAuthFailure(err, credentials)
		}
	}

	return nil
}

func pushImage(ctx context.Context, target string, img v1.Image, credentials *registryauth.Credentials) error {
	ref, err := oci.ParseReference(target)
	if err != nil {
		return err
	}

	//nolint:wrapcheck // oci adds the reference
	return oci.Push(ctx, ref, img, credentials.Authenticator())
}

func tagImage(ctx context.Context, target string, img v1.Image, credentials *registryauth.Credentials) error {
	tag, err := oci.ParseTag(target)
	if err != nil {
		return err
	}

	//nolint:wrapcheck // oci adds the reference
	return oci.Tag(ctx, tag, img, credentials.Authenticator())
}

func (s *Strategy) platform(image *v1alpha1.ImageConfiguration) (*v1.Platform, error) {
	var platform string

	if image.Build != nil && len(image.Build.Platforms) > 0 {
		platform = image.Build.Platforms[0]

		if len(image.Build.Platforms) > 1 {
			s.opts.Logger.Warnf("%s: building %s only", image.Description(), platform)
		}
	}

	//nolint:wrapcheck // oci names the platform
	return oci.ParsePlatform(platform)
}

// baseImage pulls the From image, or starts from scratch when none is set.
func (s *Strategy) baseImage(
	ctx context.Context,
	image *v1alpha1.ImageConfiguration,
	platform *v1.Platform,
) (v1.Image, error) {
	if image.Build.From == "" {
		scratch := mutate.MediaType(empty.Image, types.OCIManifestSchema1)

		return mutate.ConfigMediaType(scratch, types.OCIConfigJSON), nil
	}

	registryHost := registryauth.ResolveRegistry(false, image, s.opts.PullRegistry)
	from := v1alpha1.ParseImageName(image.Build.From).FullName(registryHost)

	ref, err := oci.ParseReference(from)
	if err != nil {
		return nil, err
	}

	credentials, err := s.opts.Credentials.ForRegistry(s.opts.PullRegistry, false, registryHost)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pull credentials: %w", err)
	}

	s.opts.Logger.Debugf("pulling base image %s", from)

	img, err := oci.Pull(ctx, ref, credentials.Authenticator(), platform)
	if err != nil {
		return nil, fmt.Errorf("failed to pull base image: %w", err)
	}

	return img, nil
}

func (s *Strategy) appendAssemblies(base v1.Image, config *v1alpha1.BuildConfiguration) (v1.Image, error) {
	manifestType, err := base.MediaType()
	if err != nil {
		return nil, fmt.Errorf("failed to read base image media type: %w", err)
	}

	layerType := oci.LayerMediaType(manifestType)
	layers := make([]v1.Layer, 0, len(config.Assemblies))

	for _, assembly := range config.Assemblies {
		source := assembly.Source
		if !filepath.IsAbs(source) {
			source = filepath.Join(s.opts.BaseDirectory, source)
		}

		if assembly.User != "" {
			s.opts.Logger.Debugf("assembly %s: file ownership %s is not applied to layers", assembly.Name, assembly.User)
		}

		layer, err := oci.DirectoryLayer(source, assembly.TargetDir, layerType)
		if err != nil {
			return nil, fmt.Errorf("failed to create layer for %s: %w", source, err)
		}

		layers = append(layers, layer)
	}

	img, err := mutate.AppendLayers(base, layers...)
	if err != nil {
		return nil, fmt.Errorf("failed to append layers: %w", err)
	}

	return img, nil
}
