package build

import (
	"context"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
)

// Service is the Strategy selected for one invocation.
type Service struct {
	strategy v1alpha1.Strategy
	backend  Backend
	logger   notify.Logger
	recorder *summary.Recorder
}

var _ Strategy = (*Service)(nil)

// NewService selects the strategy for config from table.
// The recorder may be nil.
func NewService(
	config v1alpha1.BuildServiceConfig,
	table Table,
	logger notify.Logger,
	recorder *summary.Recorder,
) (*Service, error) {
	strategy, err := Select(config, table)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = notify.Discard()
	}

	logger.Debugf("using %s build strategy", strategy)

	return &Service{
		strategy: strategy,
		backend:  table[strategy],
		logger:   logger,
		recorder: recorder,
	}, nil
}

// Strategy returns the selected strategy.
func (s *Service) Strategy() v1alpha1.Strategy {
	return s.strategy
}

// IsApplicable reports whether the selected backend can build the project.
func (s *Service) IsApplicable() bool {
	return s.backend.applicable()
}

// Build builds image with the selected strategy.
func (s *Service) Build(ctx context.Context, image *v1alpha1.ImageConfiguration) error {
	if !image.HasBuild() {
		s.logger.Infof("%s: no build configuration, skipping build", describe(image))

		return nil
	}

	err := image.Validate()
	if err != nil {
		return err
	}

	s.logger.Infof("building image %s using the %s strategy", image.Description(), s.strategy)

	err = s.backend.Build(ctx, image)
	if err != nil {
		return newServiceError(err, "failed to build image %s", image.Description())
	}

	s.recorder.SetBuildStrategy(string(s.strategy))
	s.recorder.AddImage(summary.Image{
		Name:       image.Name,
		BaseImage:  image.Build.From,
		Dockerfile: image.Build.Dockerfile,
		Built:      true,
	})

	return nil
}

// Push pushes every buildable image in images.
func (s *Service) Push(
	ctx context.Context,
	images []v1alpha1.ImageConfiguration,
	retries int,
	registryConfig *v1alpha1.RegistryConfig,
	skipTag bool,
) error {
	request := PushRequest{Retries: retries, RegistryConfig: registryConfig, SkipTag: skipTag}

	for index := range images {
		image := &images[index]
		if !image.HasBuild() {
			s.logger.Debugf("%s: no build configuration, skipping push", describe(image))

			continue
		}

		err := s.backend.Push(ctx, image, request)
		if err != nil {
			return newServiceError(err, "failed to push image %s", image.Description())
		}

		s.recorder.AddImage(summary.Image{Name: image.Name, Pushed: true})
	}

	if registry := registryConfig.RegistryOrDefault(); registry != "" {
		s.recorder.SetPushRegistry(registry)
	}

	return nil
}

func describe(image *v1alpha1.ImageConfiguration) string {
	if image == nil {
		return "<nil image>"
	}

	return image.Description()
}
