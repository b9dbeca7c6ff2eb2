package cmd

import (
	"fmt"

	"github.com/devantler-tech/kubepack/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	return NewRootCmdWithRuntime(version, commit, date, di.NewRuntime())
}

// NewRootCmdWithRuntime is NewRootCmd with an explicit dependency runtime.
func NewRootCmdWithRuntime(version, commit, date string, runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubepack",
		Short: "Build container images and Kubernetes manifests, and deploy them",
		Long: `kubepack builds a project's container images with Docker, S2I, Jib,
Buildpacks or the Spring Boot build plugin, generates its Kubernetes manifest
and Helm chart, and applies or undeploys the manifest.`,
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	flags := cmd.PersistentFlags()
	flags.StringP(configFlag, "c", "", "Config file (default ./kubepack.yaml)")
	flags.Bool(verboseFlag, false, "Show debug output")
	flags.String(kubeconfigFlag, "", "Path to the kubeconfig file")
	flags.String(contextFlag, "", "Kubeconfig context")
	flags.Bool(summaryFlag, false, "Print a summary when the command finishes")
	flags.Bool(freshSummaryFlag, false, "Discard the summary of previous commands before running")

	cmd.AddCommand(NewBuildCmd(runtimeContainer))
	cmd.AddCommand(NewPushCmd(runtimeContainer))
	cmd.AddCommand(NewResourceCmd(runtimeContainer))
	cmd.AddCommand(NewApplyCmd(runtimeContainer))
	cmd.AddCommand(NewUndeployCmd(runtimeContainer))
	cmd.AddCommand(NewHelmCmd(runtimeContainer))
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// Execute runs the provided root command and handles errors.
func Execute(cmd *cobra.Command) error {
	executor := errorhandler.NewExecutor()

	err := executor.Execute(cmd)
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// Help only fails when writing to the output fails.
	_ = cmd.Help()

	return nil
}
