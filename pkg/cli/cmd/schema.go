package cmd

import (
	"fmt"

	"github.com/devantler-tech/kubepack/pkg/io/configmanager"
	"github.com/spf13/cobra"
)

// NewSchemaCmd creates the schema command.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "schema",
		Short:        "Print the JSON schema of kubepack.yaml",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := configmanager.JSONSchema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			if err != nil {
				return fmt.Errorf("write schema: %w", err)
			}

			return nil
		},
	}
}
