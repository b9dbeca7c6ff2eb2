package build

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/fsutil/archive"
)

const (
	// DefaultBaseImage is used by generated Dockerfiles when no base image is configured.
	DefaultBaseImage = "busybox:latest"
	// GeneratedDockerfile is the name of the Dockerfile generated for assembly builds.
	GeneratedDockerfile = "Dockerfile"
)

// Context is a build context ready to be archived.
type Context struct {
	// Entries are the files of the context, in archive order.
	Entries []archive.Entry
	// Dockerfile is the slash separated Dockerfile path inside the context.
	Dockerfile string
	// Generated is true when the Dockerfile was generated from the image configuration.
	Generated bool
}

// NewContext collects the build context of image.
//
// With a Dockerfile the context is ContextDir (baseDirectory when unset) and the
// Dockerfile path is taken relative to it. Without one a Dockerfile is generated
// and every assembly is placed in its own top-level directory.
func NewContext(image *v1alpha1.ImageConfiguration, baseDirectory string) (*Context, error) {
	if !image.HasBuild() {
		return nil, fmt.Errorf("%w: %s", ErrNoBuildConfiguration, image.Name)
	}

	if image.Build.Dockerfile != "" {
		return dockerfileContext(image.Build, baseDirectory)
	}

	return assemblyContext(image.Build, baseDirectory)
}

func dockerfileContext(config *v1alpha1.BuildConfiguration, baseDirectory string) (*Context, error) {
	contextDir := resolve(baseDirectory, config.ContextDir)

	dockerfile := config.Dockerfile
	if !filepath.IsAbs(dockerfile) {
		dockerfile = filepath.Join(contextDir, dockerfile)
	}

	relative, err := filepath.Rel(contextDir, dockerfile)
	if err != nil || strings.HasPrefix(relative, "..") {
		return nil, fmt.Errorf("%w: %s is not below %s", ErrDockerfileOutsideContext, dockerfile, contextDir)
	}

	entries, err := archive.ReadDirectory(contextDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read build context: %w", err)
	}

	relative = filepath.ToSlash(relative)
	if !slices.ContainsFunc(entries, func(entry archive.Entry) bool { return entry.Name == relative }) {
		return nil, fmt.Errorf("%w: %s", os.ErrNotExist, dockerfile)
	}

	return &Context{Entries: entries, Dockerfile: relative}, nil
}

func assemblyContext(config *v1alpha1.BuildConfiguration, baseDirectory string) (*Context, error) {
	var entries []archive.Entry

	for index, assembly := range config.Assemblies {
		files, err := archive.ReadDirectory(resolve(baseDirectory, assembly.Source))
		if err != nil {
			return nil, fmt.Errorf("failed to read assembly %s: %w", assemblyName(assembly, index), err)
		}

		for _, file := range files {
			file.Name = path.Join(assemblyName(assembly, index), file.Name)
			entries = append(entries, file)
		}
	}

	entries = append(entries, archive.Entry{
		Name:    GeneratedDockerfile,
		Content: []byte(GenerateDockerfile(config)),
	})

	return &Context{Entries: entries, Dockerfile: GeneratedDockerfile, Generated: true}, nil
}

// GenerateDockerfile renders a Dockerfile equivalent to an assembly based
// build configuration. Maps are rendered in key order.
func GenerateDockerfile(config *v1alpha1.BuildConfiguration) string {
	var builder strings.Builder

	from := config.From
	if from == "" {
		from = DefaultBaseImage
	}

	fmt.Fprintf(&builder, "FROM %s\n", from)

	for _, key := range slices.Sorted(maps.Keys(config.Labels)) {
		fmt.Fprintf(&builder, "LABEL %s=%q\n", key, config.Labels[key])
	}

	for _, key := range slices.Sorted(maps.Keys(config.Env)) {
		fmt.Fprintf(&builder, "ENV %s=%q\n", key, config.Env[key])
	}

	if len(config.Ports) > 0 {
		fmt.Fprintf(&builder, "EXPOSE %s\n", strings.Join(config.Ports, " "))
	}

	for index, assembly := range config.Assemblies {
		chown := ""
		if assembly.User != "" {
			chown = "--chown=" + assembly.User + " "
		}

		fmt.Fprintf(&builder, "COPY %s%s %s\n", chown, assemblyName(assembly, index), targetDir(assembly))
	}

	if config.WorkDir != "" {
		fmt.Fprintf(&builder, "WORKDIR %s\n", config.WorkDir)
	}

	if config.User != "" {
		fmt.Fprintf(&builder, "USER %s\n", config.User)
	}

	if len(config.Volumes) > 0 {
		fmt.Fprintf(&builder, "VOLUME %s\n", execForm(config.Volumes))
	}

	if len(config.Entrypoint) > 0 {
		fmt.Fprintf(&builder, "ENTRYPOINT %s\n", execForm(config.Entrypoint))
	}

	if len(config.Cmd) > 0 {
		fmt.Fprintf(&builder, "CMD %s\n", execForm(config.Cmd))
	}

	return builder.String()
}

// assemblyName returns the directory an assembly is placed in within a build context.
func assemblyName(assembly v1alpha1.AssemblyConfiguration, index int) string {
	if assembly.Name != "" {
		return assembly.Name
	}

	return fmt.Sprintf("assembly-%d", index)
}

func targetDir(assembly v1alpha1.AssemblyConfiguration) string {
	if assembly.TargetDir == "" {
		return "/"
	}

	return strings.TrimSuffix(assembly.TargetDir, "/") + "/"
}

func execForm(values []string) string {
	// Marshalling a string slice cannot fail.
	encoded, _ := json.Marshal(values)

	return string(encoded)
}

func resolve(baseDirectory, dir string) string {
	if dir == "" {
		return baseDirectory
	}

	if filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(baseDirectory, dir)
}
