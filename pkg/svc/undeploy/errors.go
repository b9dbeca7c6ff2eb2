package undeploy

import "errors"

var (
	// ErrUndeployFailed is returned when at least one resource could not be deleted.
	ErrUndeployFailed = errors.New("failed to undeploy resources")
	// ErrCRDNotFound is returned for custom resources whose kind no CRD serves.
	ErrCRDNotFound = errors.New("no custom resource definition found")
	// ErrStillPresent is returned when a resource outlives delete-and-wait polling.
	ErrStillPresent = errors.New("resource still present after deletion")
	// ErrNoClients is returned when the engine has no cluster connection.
	ErrNoClients = errors.New("no cluster connection configured")
)
