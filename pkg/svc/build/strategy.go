package build

import (
	"context"
	"fmt"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
)

// Strategy builds and pushes images.
type Strategy interface {
	// IsApplicable reports whether the strategy can build the current project.
	IsApplicable() bool
	// Build builds one image. Images without a build configuration are skipped.
	Build(ctx context.Context, image *v1alpha1.ImageConfiguration) error
	// Push pushes every buildable image, retrying transient registry failures
	// up to retries times. skipTag pushes only the primary tag.
	Push(
		ctx context.Context,
		images []v1alpha1.ImageConfiguration,
		retries int,
		registryConfig *v1alpha1.RegistryConfig,
		skipTag bool,
	) error
}

// PushRequest carries the per-invocation push settings to a Backend.
type PushRequest struct {
	Retries        int
	RegistryConfig *v1alpha1.RegistryConfig
	SkipTag        bool
}

// Backend holds the strategy specific operations.
type Backend struct {
	// Applicable checks strategy specific preconditions. Nil means always applicable.
	Applicable func() bool
	// Build builds an image that has a build configuration.
	Build func(ctx context.Context, image *v1alpha1.ImageConfiguration) error
	// Push pushes a built image.
	Push func(ctx context.Context, image *v1alpha1.ImageConfiguration, request PushRequest) error
}

func (b Backend) applicable() bool {
	return b.Applicable == nil || b.Applicable()
}

// Table maps strategies to their backends.
type Table map[v1alpha1.Strategy]Backend

type selectionRule struct {
	strategy v1alpha1.Strategy
	matches  func(config v1alpha1.BuildServiceConfig, backend Backend) bool
}

// selectionRules are evaluated in order when no strategy is configured.
var selectionRules = []selectionRule{
	{
		strategy: v1alpha1.StrategySpring,
		matches: func(config v1alpha1.BuildServiceConfig, backend Backend) bool {
			return config.ClusterContext && backend.applicable()
		},
	},
	{
		strategy: v1alpha1.StrategyDocker,
		matches: func(v1alpha1.BuildServiceConfig, Backend) bool {
			return true
		},
	},
}

// Select resolves the strategy for config.
//
// An explicitly configured strategy always wins, provided its backend exists
// and is applicable. Otherwise Spring is chosen when building for a cluster
// and the project is a Spring Boot 3 project, and Docker in every other case.
func Select(config v1alpha1.BuildServiceConfig, table Table) (v1alpha1.Strategy, error) {
	if config.Strategy != v1alpha1.StrategyNone {
		if !config.Strategy.IsValid() {
			return v1alpha1.StrategyNone, fmt.Errorf("%w: %s", v1alpha1.ErrInvalidStrategy, config.Strategy)
		}

		backend, ok := table[config.Strategy]
		if !ok {
			return v1alpha1.StrategyNone, fmt.Errorf("%w: %s", ErrStrategyUnavailable, config.Strategy)
		}

		if !backend.applicable() {
			return v1alpha1.StrategyNone, fmt.Errorf("%w: %s", ErrStrategyNotApplicable, config.Strategy)
		}

		return config.Strategy, nil
	}

	for _, rule := range selectionRules {
		backend, ok := table[rule.strategy]
		if ok && rule.matches(config, backend) {
			return rule.strategy, nil
		}
	}

	return v1alpha1.StrategyNone, ErrNoStrategy
}
