package di

import (
	"fmt"

	"github.com/devantler-tech/kubepack/pkg/cmd/runner"
	"github.com/samber/do/v2"
)

// Dependency resolvers.

// ResolveClusterClientsFactory retrieves the cluster client factory.
func ResolveClusterClientsFactory(injector Injector) (ClusterClientsFactory, error) {
	factory, err := do.Invoke[ClusterClientsFactory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve cluster clients factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveDaemonClientFactory retrieves the Docker daemon client factory.
func ResolveDaemonClientFactory(injector Injector) (DaemonClientFactory, error) {
	factory, err := do.Invoke[DaemonClientFactory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve daemon client factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveCommandRunner retrieves the process runner.
func ResolveCommandRunner(injector Injector) (runner.CommandRunner, error) {
	commandRunner, err := do.Invoke[runner.CommandRunner](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve command runner dependency: %w", err)
	}

	return commandRunner, nil
}
