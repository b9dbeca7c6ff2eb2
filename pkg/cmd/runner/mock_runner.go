package runner

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCommandRunner is a mock implementation of CommandRunner for testing.
type MockCommandRunner struct {
	mock.Mock
}

// NewMockCommandRunner creates a new MockCommandRunner instance.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{}
}

// Run mocks running a command.
func (m *MockCommandRunner) Run(ctx context.Context, command Command) (CommandResult, error) {
	args := m.Called(ctx, command)

	result, ok := args.Get(0).(CommandResult)
	if !ok {
		return CommandResult{}, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return result, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}
