package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrEmptyCommand is returned when a Command has no executable name.
var ErrEmptyCommand = errors.New("command name is required")

// Command is an external process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty uses the current directory.
	Dir string
	// Env holds additional KEY=VALUE entries appended to the process environment.
	Env []string
}

// String renders the command line for log output.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CommandResult captures the stdout and stderr collected during a command execution.
// Both fields contain the complete output, including output produced before an
// error occurred.
type CommandResult struct {
	Stdout string
	Stderr string
}

// CommandRunner executes external commands while capturing their output.
type CommandRunner interface {
	Run(ctx context.Context, command Command) (CommandResult, error)
}

// ProcessRunner runs commands as child processes.
// Output is written to stdout/stderr in real time while also being captured.
type ProcessRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// NewProcessRunner creates a command runner writing process output to stdout and stderr.
//
// If stdout or stderr are nil, they default to os.Stdout and os.Stderr respectively.
func NewProcessRunner(stdout, stderr io.Writer) *ProcessRunner {
	if stdout == nil {
		stdout = os.Stdout
	}

	if stderr == nil {
		stderr = os.Stderr
	}

	return &ProcessRunner{
		stdout: stdout,
		stderr: stderr,
	}
}

// Run executes the command and waits for it to exit. The process is killed
// when ctx is cancelled.
func (r *ProcessRunner) Run(ctx context.Context, command Command) (CommandResult, error) {
	if command.Name == "" {
		return CommandResult{}, ErrEmptyCommand
	}

	var outBuf, errBuf bytes.Buffer

	//nolint:gosec // the command line is assembled from the build configuration
	cmd := exec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	cmd.Stdout = io.MultiWriter(&outBuf, r.stdout)
	cmd.Stderr = io.MultiWriter(&errBuf, r.stderr)

	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}

	execErr := cmd.Run()

	result := CommandResult{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}

	if execErr != nil {
		return result, fmt.Errorf("command execution failed: %s: %w", command, execErr)
	}

	return result, nil
}

// LookPath reports whether an executable is available on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)

	return err == nil
}
