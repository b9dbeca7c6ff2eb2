package cmd

import (
	"fmt"
	stdmaps "maps"
	"sync"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	dockerclient "github.com/devantler-tech/kubepack/pkg/client/docker"
	"github.com/devantler-tech/kubepack/pkg/cmd/runner"
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/io/configmanager"
	"github.com/devantler-tech/kubepack/pkg/k8s"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
	"github.com/devantler-tech/kubepack/pkg/svc/build/s2i"
	"github.com/devantler-tech/kubepack/pkg/svc/build/strategies"
	"github.com/devantler-tech/kubepack/pkg/svc/registryauth"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	"github.com/spf13/cobra"
)

// session is the state shared by one command invocation.
type session struct {
	cmd         *cobra.Command
	project     *v1alpha1.Project
	logger      *notify.WriterLogger
	recorder    *summary.Recorder
	credentials *registryauth.Resolver

	clusterFactory di.ClusterClientsFactory
	daemonFactory  di.DaemonClientFactory
	runner         runner.CommandRunner

	clusterOnce sync.Once
	clients     *k8s.Clients
	clientsErr  error
	daemon      dockerclient.DaemonClient
}

// newSession loads the configuration with the command's flags bound to
// flagKeys and resolves the runtime dependencies.
func newSession(cmd *cobra.Command, injector di.Injector, flagKeys map[string]string) (*session, error) {
	configFile, _ := cmd.Flags().GetString(configFlag)
	verbose, _ := cmd.Flags().GetBool(verboseFlag)

	manager := configmanager.NewConfigManager(cmd.OutOrStdout(), configFile)

	err := manager.BindFlags(cmd.Flags(), mergeKeys(globalFlagKeys, flagKeys))
	if err != nil {
		return nil, err
	}

	project, err := manager.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	clusterFactory, err := di.ResolveClusterClientsFactory(injector)
	if err != nil {
		return nil, err
	}

	daemonFactory, err := di.ResolveDaemonClientFactory(injector)
	if err != nil {
		return nil, err
	}

	commandRunner, err := di.ResolveCommandRunner(injector)
	if err != nil {
		return nil, err
	}

	logger := notify.NewLogger(cmd.OutOrStdout(), verbose)

	recorder := summary.Init(project.OutputDirectory, logger, summary.WithOutput(cmd.OutOrStdout()))
	if fresh, _ := cmd.Flags().GetBool(freshSummaryFlag); fresh {
		recorder.Clear()
	}

	return &session{
		cmd:            cmd,
		project:        project,
		logger:         logger,
		recorder:       recorder,
		credentials:    registryauth.NewResolver(logger),
		clusterFactory: clusterFactory,
		daemonFactory:  daemonFactory,
		runner:         commandRunner,
	}, nil
}

// clusterClients connects to the configured cluster on first use.
func (s *session) clusterClients() (*k8s.Clients, error) {
	s.clusterOnce.Do(func() {
		s.clients, s.clientsErr = s.clusterFactory(s.project.Kubeconfig, s.project.Context)
	})

	return s.clients, s.clientsErr
}

func (s *session) imageService() (*dockerclient.ImageService, error) {
	daemon, err := s.daemonFactory()
	if err != nil {
		return nil, err
	}

	s.daemon = daemon

	//nolint:wrapcheck // NewImageService describes the failure
	return dockerclient.NewImageService(daemon, s.cmd.OutOrStdout())
}

// buildService selects the build strategy for the project.
func (s *session) buildService() (*build.Service, error) {
	table := strategies.NewTable(strategies.Dependencies{
		Project:      *s.project,
		ImageService: s.imageService,
		Cluster:      s2i.ClusterFromClients(s.clusterClients),
		Runner:       s.runner,
		Credentials:  s.credentials,
		Recorder:     s.recorder,
		Logger:       s.logger,
	})

	//nolint:wrapcheck // Select errors name the strategy
	return build.NewService(s.project.Build, table, s.logger, s.recorder)
}

// finish records the outcome, prints the summary and releases the daemon
// connection. A successful action that ends a run clears the summary so the
// next build starts a new report. It returns err unchanged.
func (s *session) finish(action string, err error) error {
	if s.daemon != nil {
		_ = s.daemon.Close()
	}

	s.recorder.AddAction(action)

	if err != nil {
		s.recorder.SetFailure(err)
	} else {
		s.recorder.SetSuccessful()
	}

	s.recorder.Print(s.project.Summary)

	if err == nil && endsRun(action) {
		s.recorder.Clear()
	}

	return err
}

// endsRun reports whether action is the last step of a build, push and deploy run.
func endsRun(action string) bool {
	return action == "apply" || action == "undeploy"
}

func mergeKeys(maps ...map[string]string) map[string]string {
	merged := map[string]string{}

	for _, keys := range maps {
		stdmaps.Copy(merged, keys)
	}

	return merged
}
