package cmd

import (
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/apply"
	"github.com/spf13/cobra"
)

// NewApplyCmd creates the apply command.
func NewApplyCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "apply",
		Short:        "Apply the manifest to the cluster",
		Long:         "Server-side apply every resource of the manifest. Namespaces and CRDs are applied first.",
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

		return s.finish("apply", runApply(s))
	})

	return cmd
}

func runApply(s *session) error {
	notify.Titlef(s.cmd.OutOrStdout(), "🚢", "Apply resources...")

	manifest, _ := s.cmd.Flags().GetString(manifestFlag)
	config := s.project.Resource

	err := apply.New(apply.Options{
		Clients:  s.clusterClients,
		Recorder: s.recorder,
		Logger:   s.logger,
	}).Apply(s.cmd.Context(), config.SourceDirs, config, manifest)
	if err != nil {
		return err //nolint:wrapcheck // apply aggregates per resource failures
	}

	notify.Successf(s.cmd.OutOrStdout(), "resources applied")

	return nil
}
