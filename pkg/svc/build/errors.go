package build

import (
	"errors"
	"fmt"
)

var (
	// ErrStrategyUnavailable is returned when the resolved strategy has no backend.
	ErrStrategyUnavailable = errors.New("build strategy is not available")
	// ErrStrategyNotApplicable is returned when an explicitly configured strategy
	// cannot build the project.
	ErrStrategyNotApplicable = errors.New("build strategy is not applicable to the project")
	// ErrNoStrategy is returned when no strategy could be selected.
	ErrNoStrategy = errors.New("no build strategy could be selected")
)

// ServiceError is an unexpected build or push failure.
type ServiceError struct {
	// Message is a human readable description of what failed.
	Message string
	Err     error
}

func newServiceError(err error, format string, args ...any) *ServiceError {
	return &ServiceError{Message: fmt.Sprintf(format, args...), Err: err}
}

// Error implements error.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Message
	}

	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoBuildConfiguration is returned when a build context is requested for an
	// image without build configuration.
	ErrNoBuildConfiguration = errors.New("image has no build configuration")
	// ErrDockerfileOutsideContext is returned when the Dockerfile is not inside the
	// build context directory.
	ErrDockerfileOutsideContext = errors.New("dockerfile is outside of the build context")
)
