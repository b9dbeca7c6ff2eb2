package spring

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/pelletier/go-toml/v2"
)

const (
	// BootGroup is the Spring Boot maven group.
	BootGroup = "org.springframework.boot"
	// MavenPlugin is the artifact id of the Spring Boot Maven plugin.
	MavenPlugin = "spring-boot-maven-plugin"
	// GradlePlugin is the id of the Spring Boot Gradle plugin.
	GradlePlugin = "org.springframework.boot"
	// VersionCatalog is the Gradle version catalog path relative to the project root.
	VersionCatalog = "gradle/libs.versions.toml"

	minimumMajor = 3
)

// IsSpringBoot3 reports whether project builds with Spring Boot 3 or newer
// and applies the Spring Boot build plugin.
func IsSpringBoot3(project v1alpha1.JavaProject) bool {
	if !hasBootPlugin(project) {
		return false
	}

	version, err := BootVersion(project)
	if err != nil || version == nil {
		return false
	}

	return version.Major() >= minimumMajor
}

// BootVersion returns the Spring Boot version the project declares, or nil when
// it declares none. Dependencies and plugins are checked before the Gradle
// version catalog.
func BootVersion(project v1alpha1.JavaProject) (*semver.Version, error) {
	for _, raw := range declaredVersions(project) {
		version, err := semver.NewVersion(raw)
		if err == nil {
			return version, nil
		}
	}

	raw, err := catalogBootVersion(filepath.Join(project.BaseDirectory, VersionCatalog))
	if err != nil || raw == "" {
		return nil, err
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid Spring Boot version %q: %w", raw, err)
	}

	return version, nil
}

// hasBootPlugin reports whether the project applies the Spring Boot plugin of
// its own build tool.
func hasBootPlugin(project v1alpha1.JavaProject) bool {
	tool, err := buildTool(project)
	if err != nil {
		return false
	}

	for _, plugin := range project.Plugins {
		switch tool {
		case v1alpha1.BuildToolMaven:
			if plugin.GroupID == BootGroup && plugin.ArtifactID == MavenPlugin {
				return true
			}
		case v1alpha1.BuildToolGradle:
			if plugin.GroupID == "" && plugin.ArtifactID == GradlePlugin {
				return true
			}
		}
	}

	return false
}

func declaredVersions(project v1alpha1.JavaProject) []string {
	var versions []string

	for _, plugin := range project.Plugins {
		if plugin.Version != "" && (plugin.GroupID == BootGroup || plugin.ArtifactID == GradlePlugin) {
			versions = append(versions, plugin.Version)
		}
	}

	for _, dependency := range project.Dependencies {
		if dependency.Version != "" && dependency.GroupID == BootGroup {
			versions = append(versions, dependency.Version)
		}
	}

	return versions
}

// versionCatalog is the subset of a Gradle version catalog that can declare
// the Spring Boot version. Entries are either strings or tables.
type versionCatalog struct {
	Versions  map[string]any `toml:"versions"`
	Plugins   map[string]any `toml:"plugins"`
	Libraries map[string]any `toml:"libraries"`
}

func catalogBootVersion(path string) (string, error) {
	//nolint:gosec // path is derived from the project directory
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to read version catalog: %w", err)
	}

	var catalog versionCatalog

	err = toml.Unmarshal(data, &catalog)
	if err != nil {
		return "", fmt.Errorf("failed to parse version catalog %s: %w", path, err)
	}

	for _, entry := range catalog.Plugins {
		if version := catalog.pluginVersion(entry); version != "" {
			return version, nil
		}
	}

	for _, entry := range catalog.Libraries {
		if version := catalog.libraryVersion(entry); version != "" {
			return version, nil
		}
	}

	return "", nil
}

// pluginVersion handles "id:version" strings and {id, version} tables.
func (c versionCatalog) pluginVersion(entry any) string {
	switch value := entry.(type) {
	case string:
		id, version, found := strings.Cut(value, ":")
		if found && id == GradlePlugin {
			return version
		}
	case map[string]any:
		if value["id"] == GradlePlugin {
			return c.resolve(value["version"])
		}
	}

	return ""
}

// libraryVersion handles "group:name:version" strings and tables using either
// module or group and name.
func (c versionCatalog) libraryVersion(entry any) string {
	switch value := entry.(type) {
	case string:
		parts := strings.Split(value, ":")
		if len(parts) == 3 && parts[0] == BootGroup {
			return parts[2]
		}
	case map[string]any:
		group, _ := value["group"].(string)
		if module, ok := value["module"].(string); ok {
			group, _, _ = strings.Cut(module, ":")
		}

		if group == BootGroup {
			return c.resolve(value["version"])
		}
	}

	return ""
}

// resolve turns a version declaration into a version string, following
// version.ref into the versions table.
func (c versionCatalog) resolve(declaration any) string {
	switch value := declaration.(type) {
	case string:
		return value
	case map[string]any:
		if ref, ok := value["ref"].(string); ok {
			return c.resolve(c.Versions[ref])
		}

		for _, key := range []string{"strictly", "require", "prefer"} {
			if version, ok := value[key].(string); ok {
				return version
			}
		}
	}

	return ""
}
