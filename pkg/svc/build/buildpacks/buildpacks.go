package buildpacks

import (
	"context"
	"fmt"
	"maps"
	"slices"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/cmd/runner"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
)

// PackBinary is the pack CLI executable.
const PackBinary = "pack"

// PushFunc pushes an image the pack CLI left in the daemon.
type PushFunc func(ctx context.Context, image *v1alpha1.ImageConfiguration, request build.PushRequest) error

// Options configure the buildpacks strategy.
type Options struct {
	Config        v1alpha1.BuildServiceConfig
	BaseDirectory string
	Runner        runner.CommandRunner
	Push          PushFunc
	// LookPath reports whether an executable exists. Defaults to runner.LookPath.
	LookPath func(name string) bool
	Logger   notify.Logger
}

// Strategy runs pack build for each image.
type Strategy struct {
	opts Options
}

// New returns a buildpacks Strategy.
func New(opts Options) *Strategy {
	if opts.Logger == nil {
		opts.Logger = notify.Discard()
	}

	if opts.Runner == nil {
		opts.Runner = runner.NewProcessRunner(nil, nil)
	}

	if opts.LookPath == nil {
		opts.LookPath = runner.LookPath
	}

	return &Strategy{opts: opts}
}

// Backend returns the strategy as a build table entry.
func (s *Strategy) Backend() build.Backend {
	return build.Backend{Applicable: s.IsApplicable, Build: s.Build, Push: s.Push}
}

// IsApplicable reports whether the pack CLI is installed.
func (s *Strategy) IsApplicable() bool {
	return s.opts.LookPath(PackBinary)
}

// Build runs pack build for image.
func (s *Strategy) Build(ctx context.Context, image *v1alpha1.ImageConfiguration) error {
	command := s.command(image)

	s.opts.Logger.Infof("running %s", command)

	_, err := s.opts.Runner.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("pack build of %s failed: %w", image.Name, err)
	}

	return nil
}

// Push pushes image through the configured push function.
func (s *Strategy) Push(ctx context.Context, image *v1alpha1.ImageConfiguration, request build.PushRequest) error {
	if s.opts.Push == nil {
		return ErrNoPusher
	}

	return s.opts.Push(ctx, image, request)
}

func (s *Strategy) command(image *v1alpha1.ImageConfiguration) runner.Command {
	config := image.Build

	builder := config.Builder
	if builder == "" {
		builder = s.opts.Config.BuildpacksBuilder
	}

	if builder == "" {
		builder = v1alpha1.DefaultBuildpacksBuilder
	}

	path := config.ContextDir
	if path == "" {
		path = s.opts.BaseDirectory
	}

	args := []string{"build", image.Name, "--builder", builder, "--path", path}

	if policy := pullPolicy(s.opts.Config); policy != "" {
		args = append(args, "--pull-policy", policy)
	}

	for _, tag := range build.PushTargets(image, "", false)[1:] {
		args = append(args, "--tag", tag)
	}

	if len(config.Platforms) > 0 {
		args = append(args, "--platform", config.Platforms[0])
	}

	for _, key := range slices.Sorted(maps.Keys(config.Env)) {
		args = append(args, "--env", key+"="+config.Env[key])
	}

	return runner.Command{Name: PackBinary, Args: args, Dir: s.opts.BaseDirectory}
}

func pullPolicy(config v1alpha1.BuildServiceConfig) string {
	if config.ForcePull {
		return "always"
	}

	switch config.PullPolicy {
	case v1alpha1.PullAlways:
		return "always"
	case v1alpha1.PullIfNotPresent:
		return "if-not-present"
	case v1alpha1.PullNever:
		return "never"
	default:
		return ""
	}
}
