package strategies

import (
	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/cmd/runner"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
	"github.com/devantler-tech/kubepack/pkg/svc/build/buildpacks"
	"github.com/devantler-tech/kubepack/pkg/svc/build/docker"
	"github.com/devantler-tech/kubepack/pkg/svc/build/jib"
	"github.com/devantler-tech/kubepack/pkg/svc/build/s2i"
	"github.com/devantler-tech/kubepack/pkg/svc/build/spring"
	"github.com/devantler-tech/kubepack/pkg/svc/registryauth"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
)

// Dependencies are the collaborators shared by the strategies.
type Dependencies struct {
	Project      v1alpha1.Project
	ImageService docker.ImageServiceFactory
	Cluster      s2i.ClusterFactory
	Runner       runner.CommandRunner
	Credentials  *registryauth.Resolver
	Recorder     *summary.Recorder
	Logger       notify.Logger
}

// NewTable returns the backends of every strategy. Strategies are only
// connected to the daemon or cluster when they build or push.
func NewTable(deps Dependencies) build.Table {
	if deps.Logger == nil {
		deps.Logger = notify.Discard()
	}

	if deps.Credentials == nil {
		deps.Credentials = registryauth.NewResolver(deps.Logger)
	}

	project := deps.Project
	baseDir := project.Java.BaseDirectory

	dockerStrategy := docker.New(docker.Options{
		Config:        project.Build,
		BaseDirectory: baseDir,
		PullRegistry:  &project.PullRegistry,
		ImageService:  deps.ImageService,
		Credentials:   deps.Credentials,
		Logger:        deps.Logger,
	})

	return build.Table{
		v1alpha1.StrategyDocker: dockerStrategy.Backend(),
		v1alpha1.StrategyJib: jib.New(jib.Options{
			Config:        project.Build,
			BaseDirectory: baseDir,
			PullRegistry:  &project.PullRegistry,
			Credentials:   deps.Credentials,
			Logger:        deps.Logger,
		}).Backend(),
		v1alpha1.StrategyS2I: s2i.New(s2i.Options{
			Config:        project.Build,
			BaseDirectory: baseDir,
			Cluster:       deps.Cluster,
			Recorder:      deps.Recorder,
			Logger:        deps.Logger,
		}).Backend(),
		v1alpha1.StrategyBuildpacks: buildpacks.New(buildpacks.Options{
			Config:        project.Build,
			BaseDirectory: baseDir,
			Runner:        deps.Runner,
			Push:          dockerStrategy.Push,
			Logger:        deps.Logger,
		}).Backend(),
		v1alpha1.StrategySpring: spring.New(spring.Options{
			Config:  project.Build,
			Project: project.Java,
			Runner:  deps.Runner,
			Push:    dockerStrategy.Push,
			Logger:  deps.Logger,
		}).Backend(),
	}
}
