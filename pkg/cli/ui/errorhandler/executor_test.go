package errorhandler_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/devantler-tech/kubepack/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/kubepack/pkg/client/netretry"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newCommand(runE func(*cobra.Command, []string) error) *cobra.Command {
	return &cobra.Command{Use: "test", RunE: runE}
}

func TestExecutor_Success(t *testing.T) {
	t.Parallel()

	err := errorhandler.NewExecutor().Execute(newCommand(func(*cobra.Command, []string) error { return nil }))
	require.NoError(t, err)

	require.NoError(t, errorhandler.NewExecutor().Execute(nil))
}

func TestExecutor_WrapsCause(t *testing.T) {
	t.Parallel()

	err := errorhandler.NewExecutor().Execute(newCommand(func(*cobra.Command, []string) error { return errBoom }))
	require.ErrorIs(t, err, errBoom)

	var commandErr *errorhandler.CommandError
	require.ErrorAs(t, err, &commandErr)
	assert.NotContains(t, err.Error(), "Error: ")
	assert.Contains(t, err.Error(), "boom")
}

func TestExecutor_UnknownCommand(t *testing.T) {
	t.Parallel()

	root := newCommand(func(*cobra.Command, []string) error { return nil })
	root.AddCommand(&cobra.Command{Use: "child", Run: func(*cobra.Command, []string) {}})
	root.SetArgs([]string{"invalid"})

	err := errorhandler.NewExecutor().Execute(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "invalid" for "test"`)
	assert.Contains(t, err.Error(), "Run 'test --help' for usage.")
}

func TestCommandError_Error(t *testing.T) {
	t.Parallel()

	var nilErr *errorhandler.CommandError

	assert.Empty(t, nilErr.Error())
	assert.Empty(t, (&errorhandler.CommandError{}).Error())
	assert.NoError(t, nilErr.Unwrap())
}

func TestCommandError_MessageAndCause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		printed string
		want    string
	}{
		{name: "distinct message", printed: "normalized", want: "normalized: boom"},
		{name: "message includes cause", printed: "Error: failed: boom", want: "failed: boom"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			cmd := newCommand(func(cmd *cobra.Command, _ []string) error {
				cmd.PrintErrln(test.printed)

				return errBoom
			})
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			err := errorhandler.NewExecutor().Execute(cmd)
			require.Error(t, err)
			assert.Equal(t, test.want, err.Error())
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errorhandler.ExitOK, errorhandler.ExitCode(nil))
	assert.Equal(t, errorhandler.ExitFailure, errorhandler.ExitCode(errBoom))
	assert.Equal(t, errorhandler.ExitUnauthorized,
		errorhandler.ExitCode(fmt.Errorf("push: %w", netretry.ErrUnauthorized)))
}
