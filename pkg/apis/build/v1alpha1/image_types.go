package v1alpha1

import (
	"fmt"

	"github.com/jinzhu/copier"
)

// ImageConfiguration describes one container image to build and push.
//
// An ImageConfiguration is treated as an immutable value once resolved: helpers that
// change it (for example [ImageConfiguration.WithRegistry]) return a deep copy.
type ImageConfiguration struct {
	// Name is the full image reference (registry/repository:tag).
	Name string `json:"name"`
	// Alias is a short name used in log output and build directories.
	Alias string `json:"alias,omitzero"`
	// Registry overrides the registry for this image only.
	Registry string `json:"registry,omitzero"`
	// Build holds the build configuration. Nil means the image is not built.
	Build *BuildConfiguration `json:"build,omitempty"`
}

// BuildConfiguration describes how an image is built.
type BuildConfiguration struct {
	// From is the base image.
	From string `json:"from,omitzero"`
	// Dockerfile is the Dockerfile path, relative to ContextDir unless absolute.
	Dockerfile string `json:"dockerFile,omitzero"`
	// ContextDir is the build context directory.
	ContextDir string `json:"contextDir,omitzero"`
	// Assemblies are the layers appended on top of From by daemonless strategies.
	Assemblies []AssemblyConfiguration `json:"assemblies,omitempty"`
	// Platforms lists target platforms (os/arch[/variant]).
	Platforms []string `json:"platforms,omitempty"`
	// Tags lists additional tags applied to the built image.
	Tags []string `json:"tags,omitempty"`
	// Volumes lists image volumes.
	Volumes []string `json:"volumes,omitempty"`
	// Ports lists exposed ports (port[/proto]).
	Ports []string `json:"ports,omitempty"`
	// User is the image user.
	User string `json:"user,omitzero"`
	// WorkDir is the image working directory.
	WorkDir string `json:"workdir,omitzero"`
	// Entrypoint is the image entrypoint.
	Entrypoint []string `json:"entryPoint,omitempty"`
	// Cmd is the image default command.
	Cmd []string `json:"cmd,omitempty"`
	// Env holds image environment variables.
	Env map[string]string `json:"env,omitempty"`
	// Labels holds image labels.
	Labels map[string]string `json:"labels,omitempty"`
	// Args holds Docker build arguments.
	Args map[string]string `json:"args,omitempty"`
	// Skip disables building this image.
	Skip bool `json:"skip,omitzero"`
	// FromKind is the S2I base image kind (DockerImage or ImageStreamTag).
	FromKind string `json:"fromKind,omitzero"`
	// Builder is the Cloud Native Buildpacks builder image.
	Builder string `json:"builder,omitzero"`
}

// AssemblyConfiguration is one layer of files added to an image.
type AssemblyConfiguration struct {
	// Name identifies the layer in log output.
	Name string `json:"name,omitzero"`
	// Source is the local directory copied into the layer.
	Source string `json:"source"`
	// TargetDir is the directory in the image where Source is placed.
	TargetDir string `json:"targetDir"`
	// User optionally owns the files (uid[:gid]).
	User string `json:"user,omitzero"`
}

// HasBuild reports whether the image has a build configuration that is not skipped.
func (i *ImageConfiguration) HasBuild() bool {
	return i != nil && i.Build != nil && !i.Build.Skip
}

// Description returns the alias when set, otherwise the image name.
func (i *ImageConfiguration) Description() string {
	if i.Alias != "" {
		return fmt.Sprintf("%s (%s)", i.Alias, i.Name)
	}

	return i.Name
}

// ShortName returns a filesystem friendly identifier for the image.
func (i *ImageConfiguration) ShortName() string {
	if i.Alias != "" {
		return i.Alias
	}

	return ParseImageName(i.Name).SimpleName()
}

// Validate checks the image configuration for obvious mistakes.
func (i *ImageConfiguration) Validate() error {
	if i.Name == "" {
		return ErrImageNameRequired
	}

	_, err := NewImageName(i.Name)
	if err != nil {
		return err
	}

	if i.Build != nil && i.Build.Dockerfile != "" && len(i.Build.Assemblies) > 0 {
		return fmt.Errorf("%w: image %s", ErrDockerfileAndAssembly, i.Name)
	}

	return nil
}

// DeepCopy returns an independent copy of the image configuration.
func (i *ImageConfiguration) DeepCopy() *ImageConfiguration {
	if i == nil {
		return nil
	}

	out := &ImageConfiguration{}

	// copier only fails for mismatched kinds, which cannot happen for identical types.
	_ = copier.CopyWithOption(out, i, copier.Option{DeepCopy: true})

	return out
}

// WithRegistry returns a copy whose name is prefixed with registry when the name
// does not already carry a registry. The receiver is never modified.
func (i *ImageConfiguration) WithRegistry(registry string) *ImageConfiguration {
	out := i.DeepCopy()
	if registry == "" {
		return out
	}

	imageName := ParseImageName(out.Name)
	if imageName.Registry == "" {
		out.Name = imageName.FullName(registry)
	}

	return out
}
