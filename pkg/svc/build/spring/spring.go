package spring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/cmd/runner"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
)

// PushFunc pushes an image the build plugin left in the daemon.
type PushFunc func(ctx context.Context, image *v1alpha1.ImageConfiguration, request build.PushRequest) error

// Options configure the spring strategy.
type Options struct {
	Config  v1alpha1.BuildServiceConfig
	Project v1alpha1.JavaProject
	Runner  runner.CommandRunner
	Push    PushFunc
	Logger  notify.Logger
}

// Strategy runs the Spring Boot build-image goal for each image.
type Strategy struct {
	opts Options
}

// New returns a spring Strategy.
func New(opts Options) *Strategy {
	if opts.Logger == nil {
		opts.Logger = notify.Discard()
	}

	if opts.Runner == nil {
		opts.Runner = runner.NewProcessRunner(nil, nil)
	}

	return &Strategy{opts: opts}
}

// Backend returns the strategy as a build table entry.
func (s *Strategy) Backend() build.Backend {
	return build.Backend{Applicable: s.IsApplicable, Build: s.Build, Push: s.Push}
}

// IsApplicable reports whether the project is a Spring Boot 3 project.
func (s *Strategy) IsApplicable() bool {
	return IsSpringBoot3(s.opts.Project)
}

// Build runs the build plugin's image goal for image.
func (s *Strategy) Build(ctx context.Context, image *v1alpha1.ImageConfiguration) error {
	command, err := s.command(image)
	if err != nil {
		return err
	}

	s.opts.Logger.Infof("running %s", command)

	_, err = s.opts.Runner.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("spring boot image build of %s failed: %w", image.Name, err)
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

func (s *Strategy) command(image *v1alpha1.ImageConfiguration) (runner.Command, error) {
	baseDir := s.opts.Project.BaseDirectory
	tags := build.PushTargets(image, "", false)[1:]

	tool, err := buildTool(s.opts.Project)
	if err != nil {
		return runner.Command{}, err
	}

	if tool == v1alpha1.BuildToolGradle {
		args := []string{"bootBuildImage", "--imageName=" + image.Name}
		if image.Build.Builder != "" {
			args = append(args, "--builder="+image.Build.Builder)
		}

		if policy := pullPolicy(s.opts.Config); policy != "" {
			args = append(args, "--pullPolicy="+policy)
		}

		for _, tag := range tags {
			args = append(args, "--tags="+tag)
		}

		return runner.Command{Name: wrapper(baseDir, "gradlew", "gradle"), Args: args, Dir: baseDir}, nil
	}

	args := []string{"spring-boot:build-image", "-Dspring-boot.build-image.imageName=" + image.Name}
	if image.Build.Builder != "" {
		args = append(args, "-Dspring-boot.build-image.builder="+image.Build.Builder)
	}

	if policy := pullPolicy(s.opts.Config); policy != "" {
		args = append(args, "-Dspring-boot.build-image.pullPolicy="+policy)
	}

	if len(tags) > 0 {
		args = append(args, "-Dspring-boot.build-image.tags="+strings.Join(tags, ","))
	}

	return runner.Command{Name: wrapper(baseDir, "mvnw", "mvn"), Args: args, Dir: baseDir}, nil
}

func buildTool(project v1alpha1.JavaProject) (v1alpha1.BuildTool, error) {
	if project.BuildTool != "" {
		return project.BuildTool, nil
	}

	switch {
	case exists(filepath.Join(project.BaseDirectory, "pom.xml")):
		return v1alpha1.BuildToolMaven, nil
	case exists(filepath.Join(project.BaseDirectory, "build.gradle")),
		exists(filepath.Join(project.BaseDirectory, "build.gradle.kts")):
		return v1alpha1.BuildToolGradle, nil
	default:
		return "", fmt.Errorf("%w in %s", ErrUnknownBuildTool, project.BaseDirectory)
	}
}

// wrapper prefers the project's build tool wrapper script over the installed tool.
func wrapper(baseDir, script, tool string) string {
	if exists(filepath.Join(baseDir, script)) {
		return "./" + script
	}

	return tool
}

func pullPolicy(config v1alpha1.BuildServiceConfig) string {
	if config.ForcePull {
		return "ALWAYS"
	}

	switch config.PullPolicy {
	case v1alpha1.PullAlways:
		return "ALWAYS"
	case v1alpha1.PullIfNotPresent:
		return "IF_NOT_PRESENT"
	case v1alpha1.PullNever:
		return "NEVER"
	default:
		return ""
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
