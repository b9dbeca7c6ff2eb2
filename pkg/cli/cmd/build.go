package cmd

import (
	"fmt"

	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
	"github.com/spf13/cobra"
)

// NewBuildCmd creates the build command.
func NewBuildCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the project's container images",
		Long: `Build every configured image with the selected build strategy.

Without --strategy, the Spring Boot build plugin is used when building for a
cluster and the project is a Spring Boot 3 application; otherwise the Docker
daemon builds the images.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	addStrategyFlag(cmd.Flags())
	cmd.Flags().Bool("force-pull", false, "Always pull base images")
	cmd.Flags().String("recreate", "", "Recreate S2I objects before building (none, all, bc, is)")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		s, err := newSession(cmd, injector, map[string]string{
			strategyFlag: "build.strategy",
			"force-pull": "build.forcePull",
			"recreate":   "build.buildRecreate",
		})
		if err != nil {
			return err
		}

		return s.finish("build", runBuild(s))
	})

	return cmd
}

func runBuild(s *session) error {
	notify.Titlef(s.cmd.OutOrStdout(), "🔨", "Build images...")

	service, err := s.buildService()
	if err != nil {
		return err
	}

	if !service.IsApplicable() {
		return fmt.Errorf("%w: %s", build.ErrStrategyNotApplicable, service.Strategy())
	}

	built := 0

	for index := range s.project.Images {
		image := &s.project.Images[index]

		err = service.Build(s.cmd.Context(), image)
		if err != nil {
			return err //nolint:wrapcheck // ServiceError names the image
		}

		if image.HasBuild() {
			built++
		}
	}

	notify.Successf(s.cmd.OutOrStdout(), "built %d %s with the %s strategy", built, plural(built, "image"), service.Strategy())

	return nil
}

func plural(count int, noun string) string {
	if count == 1 {
		return noun
	}

	return noun + "s"
}
