package v1alpha1

import "time"

// Project is the root of a kubepack.yaml configuration file.
type Project struct {
	// Java describes the build tool project the images are built from.
	Java JavaProject `json:"project,omitzero"`
	// Images lists the images to build and push.
	Images []ImageConfiguration `json:"images,omitempty"`
	// Build configures the build service.
	Build BuildServiceConfig `json:"build,omitzero"`
	// PullRegistry is used to pull base images.
	PullRegistry RegistryConfig `json:"pullRegistry,omitzero"`
	// PushRegistry is used to push built images.
	PushRegistry RegistryConfig `json:"pushRegistry,omitzero"`
	// Resource configures manifest generation, apply and undeploy.
	Resource ResourceConfig `json:"resource,omitzero"`
	// Helm configures chart generation.
	Helm HelmConfig `json:"helm,omitzero"`
	// Kubeconfig is the kubeconfig path (empty uses default loading rules).
	Kubeconfig string `json:"kubeconfig,omitzero"`
	// Context is the kubeconfig context (empty uses the current context).
	Context string `json:"context,omitzero"`
	// OutputDirectory holds the summary and generated artifacts.
	OutputDirectory string `json:"outputDirectory,omitzero"`
	// Summary enables the end of run summary.
	Summary bool `json:"summary,omitzero"`
}

// JavaProject describes the build tool project (Maven or Gradle).
type JavaProject struct {
	// GroupID is the project group id.
	GroupID string `json:"groupId,omitzero"`
	// ArtifactID is the project artifact id. It names nameless containers.
	ArtifactID string `json:"artifactId,omitzero"`
	// Version is the project version.
	Version string `json:"version,omitzero"`
	// BuildTool is maven or gradle.
	BuildTool BuildTool `json:"buildTool,omitzero"`
	// BaseDirectory is the project root.
	BaseDirectory string `json:"baseDirectory,omitzero"`
	// BuildDirectory is the build output directory (target or build).
	BuildDirectory string `json:"buildDirectory,omitzero"`
	// Dependencies lists the project dependencies.
	Dependencies []Dependency `json:"dependencies,omitempty"`
	// Plugins lists the build plugins applied to the project.
	Plugins []Plugin `json:"plugins,omitempty"`
}

// Dependency is a project dependency coordinate.
type Dependency struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version,omitzero"`
}

// Plugin is a build plugin coordinate. For Gradle plugins GroupID is empty and
// ArtifactID holds the plugin id.
type Plugin struct {
	GroupID    string `json:"groupId,omitzero"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version,omitzero"`
}

// BuildServiceConfig configures the build service for one invocation.
type BuildServiceConfig struct {
	// Strategy is the explicitly configured strategy (empty means auto-select).
	Strategy Strategy `json:"strategy,omitzero"`
	// RecreateMode controls S2I object recreation.
	RecreateMode RecreateMode `json:"buildRecreate,omitzero"`
	// ForcePull always pulls base images.
	ForcePull bool `json:"forcePull,omitzero"`
	// PullPolicy is the image pull manager policy.
	PullPolicy PullPolicy `json:"imagePullPolicy,omitzero"`
	// BuildDirectory holds per-image build contexts and image tarballs.
	BuildDirectory string `json:"buildDirectory,omitzero"`
	// Namespace is the namespace used for S2I builds.
	Namespace string `json:"namespace,omitzero"`
	// Retries is the push retry count for transient registry errors.
	Retries int `json:"retries,omitzero"`
	// SkipTag pushes only the primary tag.
	SkipTag bool `json:"skipTag,omitzero"`
	// ClusterContext tells the selector the build runs against a cluster flavour
	// where Spring delegation is preferred.
	ClusterContext bool `json:"clusterContext,omitzero"`
	// BuildpacksBuilder is the default builder image for the buildpacks strategy.
	BuildpacksBuilder string `json:"buildpacksBuilder,omitzero"`
	// S2IBuildNameSuffix is appended to S2I BuildConfig names.
	S2IBuildNameSuffix string `json:"s2iBuildNameSuffix,omitzero"`
	// BuildTimeout bounds S2I build waits.
	BuildTimeout time.Duration `json:"buildTimeout,omitzero"`
}

// ResourceConfig configures resource merge, apply and undeploy.
type ResourceConfig struct {
	// Namespace is the target namespace.
	Namespace string `json:"namespace,omitzero"`
	// FragmentsDir holds user resource fragments.
	FragmentsDir string `json:"fragmentsDir,omitzero"`
	// SourceDirs lists directories searched for the manifest.
	SourceDirs []string `json:"sourceDirs,omitempty"`
	// ManifestFile is the generated manifest path.
	ManifestFile string `json:"manifest,omitzero"`
	// SidecarAlignment aligns fragment containers by name instead of by index.
	SidecarAlignment bool `json:"sidecar,omitzero"`
	// DeleteWaitRetries bounds delete-and-wait polling.
	DeleteWaitRetries int `json:"deleteWaitRetries,omitzero"`
	// DeleteWaitInterval is the fixed delay between delete-and-wait polls.
	DeleteWaitInterval time.Duration `json:"deleteWaitInterval,omitzero"`
}

// HelmConfig configures Helm chart generation.
type HelmConfig struct {
	// Chart is the chart name (defaults to the artifact id).
	Chart string `json:"chart,omitzero"`
	// Version is the chart version (defaults to the project version).
	Version string `json:"version,omitzero"`
	// Description is the chart description.
	Description string `json:"description,omitzero"`
	// OutputDir is where the chart directory and archive are written.
	OutputDir string `json:"outputDir,omitzero"`
	// Repository is the OCI repository (oci://host/path) the chart is pushed to.
	Repository string `json:"repository,omitzero"`
}
