package cmd

import (
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/spf13/cobra"
)

// NewPushCmd creates the push command.
func NewPushCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push the project's built images",
		Long: `Push every built image to the push registry.

Transient registry errors are retried up to --retries times. Authentication
failures are never retried.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	addStrategyFlag(cmd.Flags())
	cmd.Flags().Int(retriesFlag, 0, "Retries for transient registry errors")
	cmd.Flags().Bool("skip-tag", false, "Push only the primary tag")
	cmd.Flags().String("registry", "", "Registry to push to when the image name has none")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		s, err := newSession(cmd, injector, map[string]string{
			strategyFlag: "build.strategy",
			retriesFlag:  "build.retries",
			"skip-tag":   "build.skipTag",
			"registry":   "pushRegistry.registry",
		})
		if err != nil {
			return err
		}

		return s.finish("push", runPush(s))
	})

	return cmd
}

func runPush(s *session) error {
	notify.Titlef(s.cmd.OutOrStdout(), "🚀", "Push images...")

	service, err := s.buildService()
	if err != nil {
		return err
	}

	project := s.project

	err = service.Push(s.cmd.Context(), project.Images, project.Build.Retries, &project.PushRegistry, project.Build.SkipTag)
	if err != nil {
		return err //nolint:wrapcheck // ServiceError names the image
	}

	notify.Successf(s.cmd.OutOrStdout(), "pushed images with the %s strategy", service.Strategy())

	return nil
}
