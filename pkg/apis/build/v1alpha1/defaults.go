package v1alpha1

import (
	"path/filepath"
	"time"
)

const (
	// DefaultConfigFileName is the project configuration file name without extension.
	DefaultConfigFileName = "kubepack"
	// DefaultBuildDirectoryName is the Maven build output directory.
	DefaultBuildDirectoryName = "target"
	// DefaultGradleBuildDirectoryName is the Gradle build output directory.
	DefaultGradleBuildDirectoryName = "build"
	// DefaultManifestPath is the generated manifest path relative to the build output.
	DefaultManifestPath = "classes/META-INF/jkube/kubernetes.yml"
	// DefaultFragmentsDir is the default resource fragments directory.
	DefaultFragmentsDir = "src/main/jkube"
	// DefaultBuildpacksBuilder is the default Cloud Native Buildpacks builder.
	DefaultBuildpacksBuilder = "paketobuildpacks/builder:base"
	// DefaultS2IBuildNameSuffix is appended to S2I BuildConfig names.
	DefaultS2IBuildNameSuffix = "-s2i"
	// DefaultDeleteWaitRetries is the number of delete-and-wait polls.
	DefaultDeleteWaitRetries = 10
	// DefaultDeleteWaitInterval is the delay between delete-and-wait polls.
	DefaultDeleteWaitInterval = time.Second
	// DefaultBuildTimeout bounds S2I build waits.
	DefaultBuildTimeout = 15 * time.Minute
	// DefaultOutputDirectoryName holds the summary file under the build output.
	DefaultOutputDirectoryName = "kubepack"
)

// SetDefaults fills unset fields with their defaults. Explicit values are kept.
func (p *Project) SetDefaults() {
	if p.Java.BuildTool == "" {
		p.Java.BuildTool = BuildToolMaven
	}

	if p.Java.BaseDirectory == "" {
		p.Java.BaseDirectory = "."
	}

	if p.Java.BuildDirectory == "" {
		name := DefaultBuildDirectoryName
		if p.Java.BuildTool == BuildToolGradle {
			name = DefaultGradleBuildDirectoryName
		}

		p.Java.BuildDirectory = filepath.Join(p.Java.BaseDirectory, name)
	}

	if p.Build.BuildDirectory == "" {
		p.Build.BuildDirectory = filepath.Join(p.Java.BuildDirectory, "docker")
	}

	if p.Build.RecreateMode == "" {
		p.Build.RecreateMode = RecreateNone
	}

	if p.Build.PullPolicy == "" {
		p.Build.PullPolicy = PullIfNotPresent
	}

	if p.Build.BuildpacksBuilder == "" {
		p.Build.BuildpacksBuilder = DefaultBuildpacksBuilder
	}

	if p.Build.S2IBuildNameSuffix == "" {
		p.Build.S2IBuildNameSuffix = DefaultS2IBuildNameSuffix
	}

	if p.Build.BuildTimeout == 0 {
		p.Build.BuildTimeout = DefaultBuildTimeout
	}

	p.Resource.setDefaults(p.Java)

	if p.OutputDirectory == "" {
		p.OutputDirectory = filepath.Join(p.Java.BuildDirectory, DefaultOutputDirectoryName)
	}

	if p.Helm.Chart == "" {
		p.Helm.Chart = p.Java.ArtifactID
	}

	if p.Helm.Version == "" {
		p.Helm.Version = p.Java.Version
	}

	if p.Helm.OutputDir == "" {
		p.Helm.OutputDir = filepath.Join(p.Java.BuildDirectory, "jkube", "helm")
	}
}

func (r *ResourceConfig) setDefaults(java JavaProject) {
	if r.FragmentsDir == "" {
		r.FragmentsDir = filepath.Join(java.BaseDirectory, DefaultFragmentsDir)
	}

	if r.ManifestFile == "" {
		r.ManifestFile = filepath.Join(java.BuildDirectory, DefaultManifestPath)
	}

	if len(r.SourceDirs) == 0 {
		r.SourceDirs = []string{filepath.Dir(r.ManifestFile)}
	}

	if r.DeleteWaitRetries == 0 {
		r.DeleteWaitRetries = DefaultDeleteWaitRetries
	}

	if r.DeleteWaitInterval == 0 {
		r.DeleteWaitInterval = DefaultDeleteWaitInterval
	}
}
