package cmd

import (
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/resource"
	"github.com/spf13/cobra"
)

// NewResourceCmd creates the resource command.
func NewResourceCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Generate the Kubernetes manifest",
		Long: `Generate default resources for the configured images, merge the fragments
found in the fragments directory onto them and write the manifest.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	addNamespaceFlag(cmd.Flags())
	cmd.Flags().Bool("sidecar", false, "Align fragment containers by name instead of position")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		s, err := newSession(cmd, injector, map[string]string{
			namespaceFlag: "resource.namespace",
			"sidecar":     "resource.sidecar",
		})
		if err != nil {
			return err
		}

		return s.finish("resource", runResource(s))
	})

	return cmd
}

func runResource(s *session) error {
	notify.Titlef(s.cmd.OutOrStdout(), "📄", "Generate resources...")

	path, err := resource.New(resource.Options{
		Project:  *s.project,
		Recorder: s.recorder,
		Logger:   s.logger,
	}).Write()
	if err != nil {
		return err //nolint:wrapcheck // resource errors are descriptive
	}

	notify.Successf(s.cmd.OutOrStdout(), "manifest written to %s", path)

	return nil
}
