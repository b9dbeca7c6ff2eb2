package cmd

import (
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/undeploy"
	"github.com/spf13/cobra"
)

// NewUndeployCmd creates the undeploy command.
func NewUndeployCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undeploy",
		Short: "Delete the manifest's resources from the cluster",
		Long: `Delete every resource of the manifest with background propagation.

Namespaced resources are deleted first, then cluster-scoped resources, then
custom resources. Resources that are already gone are skipped, so undeploy can
be repeated safely.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	addNamespaceFlag(cmd.Flags())
	addManifestFlag(cmd.Flags())

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		s, err := newSession(cmd, injector, map[string]string{namespaceFlag: "resource.namespace"})
		if err != nil {
			return err
		}

		return s.finish("undeploy", runUndeploy(s))
	})

	return cmd
}

func runUndeploy(s *session) error {
	notify.Titlef(s.cmd.OutOrStdout(), "🗑️", "Undeploy resources...")

	manifest, _ := s.cmd.Flags().GetString(manifestFlag)
	config := s.project.Resource

	err := undeploy.New(undeploy.Options{
		Clients:  s.clusterClients,
		Recorder: s.recorder,
		Logger:   s.logger,
	}).Undeploy(s.cmd.Context(), config.SourceDirs, config, manifest)
	if err != nil {
		return err //nolint:wrapcheck // undeploy aggregates per resource failures
	}

	notify.Successf(s.cmd.OutOrStdout(), "undeploy finished")

	return nil
}
