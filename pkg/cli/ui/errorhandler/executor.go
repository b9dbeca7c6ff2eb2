// Package errorhandler runs cobra commands and turns their failures into
// user facing messages and exit codes.
package errorhandler

import (
	"bytes"
	"errors"
	"strings"

	"github.com/devantler-tech/kubepack/pkg/client/netretry"
	"github.com/spf13/cobra"
)

// Exit codes returned by ExitCode.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitUnauthorized = 3
)

// Executor runs a command while capturing cobra's error stream.
type Executor struct {
	normalizer Normalizer
}

// NewExecutor constructs an Executor.
func NewExecutor() *Executor {
	return &Executor{normalizer: Normalizer{}}
}

// Execute runs cmd. It returns nil on success, or a *CommandError holding the
// normalized stderr output and the original error.
func (e *Executor) Execute(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	var errBuf bytes.Buffer

	originalErrWriter := cmd.ErrOrStderr()

	cmd.SetErr(&errBuf)
	defer cmd.SetErr(originalErrWriter)

	err := cmd.Execute()
	if err == nil {
		return nil
	}

	return &CommandError{
		message: e.normalizer.Normalize(errBuf.String()),
		cause:   err,
	}
}

// CommandError is a cobra failure with its normalized stderr output.
type CommandError struct {
	message string
	cause   error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return e.message
	case e.message != "":
		if strings.Contains(e.message, e.cause.Error()) {
			return e.message
		}

		return e.message + ": " + e.cause.Error()
	default:
		return e.cause.Error()
	}
}

// Unwrap exposes the underlying cause for errors.Is/errors.As consumers.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Normalizer cleans up cobra's error output.
type Normalizer struct{}

// Normalize trims whitespace, drops the "Error: " prefix and the usage hint
// line is kept.
func (Normalizer) Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	lines[0] = strings.TrimPrefix(strings.TrimSpace(lines[0]), "Error: ")

	return strings.Join(lines, "\n")
}

// ExitCode maps a command error to the process exit code. Registry
// authentication failures get their own code so scripts can tell them apart.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, netretry.ErrUnauthorized):
		return ExitUnauthorized
	default:
		return ExitFailure
	}
}
