package di

import (
	dockerclient "github.com/devantler-tech/kubepack/pkg/client/docker"
	"github.com/devantler-tech/kubepack/pkg/cmd/runner"
	"github.com/devantler-tech/kubepack/pkg/k8s"
	"github.com/samber/do/v2"
)

// ClusterClientsFactory connects to the cluster of a kubeconfig context.
type ClusterClientsFactory func(kubeconfig, context string) (*k8s.Clients, error)

// DaemonClientFactory connects to the Docker daemon.
type DaemonClientFactory func() (dockerclient.DaemonClient, error)

// Dependency providers.

// NewRuntime constructs the shared runtime container used by root command and tests.
// It registers the cluster client factory, the Docker daemon factory and the process runner.
func NewRuntime() *Runtime {
	return New(
		provideClusterClientsFactory,
		provideDaemonClientFactory,
		provideCommandRunner,
	)
}

func provideClusterClientsFactory(i Injector) error {
	do.Provide(i, func(Injector) (ClusterClientsFactory, error) {
		return k8s.NewClients, nil
	})

	return nil
}

func provideDaemonClientFactory(i Injector) error {
	do.Provide(i, func(Injector) (DaemonClientFactory, error) {
		return func() (dockerclient.DaemonClient, error) {
			//nolint:wrapcheck // GetDockerClient already wraps
			return dockerclient.GetDockerClient()
		}, nil
	})

	return nil
}

func provideCommandRunner(i Injector) error {
	do.Provide(i, func(Injector) (runner.CommandRunner, error) {
		return runner.NewProcessRunner(nil, nil), nil
	})

	return nil
}
