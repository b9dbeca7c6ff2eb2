package apply

import "errors"

var (
	// ErrNoManifest is returned when no manifest exists to apply.
	ErrNoManifest = errors.New("no manifest found")
	// ErrApplyFailed is returned when at least one resource could not be applied.
	ErrApplyFailed = errors.New("failed to apply resources")
	// ErrNoClients is returned when the service has no cluster connection.
	ErrNoClients = errors.New("no cluster connection configured")
)
