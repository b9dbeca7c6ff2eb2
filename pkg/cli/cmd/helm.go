package cmd

import (
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/helm"
	"github.com/spf13/cobra"
)

// NewHelmCmd creates the helm command.
func NewHelmCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "helm",
		Short: "Generate a Helm chart from the manifest",
		Long: `Write Chart.yaml, values.yaml and one template per resource of the manifest,
validate the chart and package it. With --push the archive is pushed to the
configured oci:// repository.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	addManifestFlag(cmd.Flags())
	cmd.Flags().String("chart", "", "Chart name")
	cmd.Flags().String("chart-version", "", "Chart version")
	cmd.Flags().String("repository", "", "OCI repository the chart is pushed to (oci://host/path)")
	cmd.Flags().Int(retriesFlag, 0, "Retries for transient registry errors")
	cmd.Flags().BoolVar(&push, "push", false, "Push the packaged chart")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		s, err := newSession(cmd, injector, map[string]string{
			"chart":         "helm.chart",
			"chart-version": "helm.version",
			"repository":    "helm.repository",
			retriesFlag:     "build.retries",
		})
		if err != nil {
			return err
		}

		return s.finish("helm", runHelm(s, push))
	})

	return cmd
}

func runHelm(s *session, push bool) error {
	notify.Titlef(s.cmd.OutOrStdout(), "⎈", "Generate Helm chart...")

	manifest, _ := s.cmd.Flags().GetString(manifestFlag)
	project := s.project

	service := helm.New(helm.Options{
		Config:       project.Helm,
		Project:      project.Java,
		PushRegistry: &project.PushRegistry,
		Credentials:  s.credentials,
		Recorder:     s.recorder,
		Logger:       s.logger,
	})

	if manifest == "" {
		manifest = project.Resource.ManifestFile
	}

	chart, err := service.Generate(project.Resource.SourceDirs, manifest)
	if err != nil {
		return err //nolint:wrapcheck // helm errors name the chart
	}

	notify.Successf(s.cmd.OutOrStdout(), "chart %s %s packaged to %s", chart.Name(), chart.Version(), chart.Archive)

	if !push {
		return nil
	}

	err = service.Push(s.cmd.Context(), chart, project.Build.Retries)
	if err != nil {
		return err //nolint:wrapcheck // helm errors name the reference
	}

	notify.Successf(s.cmd.OutOrStdout(), "chart %s pushed", chart.Name())

	return nil
}
