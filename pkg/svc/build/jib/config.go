package jib

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	imagespec "github.com/opencontainers/image-spec/specs-go/v1"
)

// configure applies the image configuration on top of the base image config.
func configure(img v1.Image, image *v1alpha1.ImageConfiguration) (v1.Image, error) {
	configFile, err := img.ConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read image config: %w", err)
	}

	config := *configFile.Config.DeepCopy()
	applyConfig(&config, image)

	img, err = mutate.Config(img, config)
	if err != nil {
		return nil, fmt.Errorf("failed to apply image config: %w", err)
	}

	return img, nil
}

func applyConfig(config *v1.Config, image *v1alpha1.ImageConfiguration) {
	build := image.Build

	config.Env = mergeEnv(config.Env, build.Env)

	if len(build.Entrypoint) > 0 {
		config.Entrypoint = slices.Clone(build.Entrypoint)
	}

	if len(build.Cmd) > 0 {
		config.Cmd = slices.Clone(build.Cmd)
	}

	if build.User != "" {
		config.User = build.User
	}

	if build.WorkDir != "" {
		config.WorkingDir = build.WorkDir
	}

	for _, port := range build.Ports {
		if config.ExposedPorts == nil {
			config.ExposedPorts = map[string]struct{}{}
		}

		if !strings.Contains(port, "/") {
			port += "/tcp"
		}

		config.ExposedPorts[port] = struct{}{}
	}

	for _, volume := range build.Volumes {
		if config.Volumes == nil {
			config.Volumes = map[string]struct{}{}
		}

		config.Volumes[volume] = struct{}{}
	}

	if config.Labels == nil {
		config.Labels = map[string]string{}
	}

	name := v1alpha1.ParseImageName(image.Name)
	setDefault(config.Labels, imagespec.AnnotationTitle, name.SimpleName())
	setDefault(config.Labels, imagespec.AnnotationVersion, name.Tag)
	maps.Copy(config.Labels, build.Labels)
}

// mergeEnv overrides KEY=VALUE entries of base with env, keeping base order and
// appending new keys sorted.
func mergeEnv(base []string, env map[string]string) []string {
	merged := make([]string, 0, len(base)+len(env))
	seen := map[string]bool{}

	for _, entry := range base {
		key, _, _ := strings.Cut(entry, "=")
		if value, ok := env[key]; ok {
			entry = key + "=" + value
		}

		seen[key] = true
		merged = append(merged, entry)
	}

	for _, key := range slices.Sorted(maps.Keys(env)) {
		if !seen[key] {
			merged = append(merged, key+"="+env[key])
		}
	}

	return merged
}

func setDefault(labels map[string]string, key, value string) {
	if _, ok := labels[key]; !ok && value != "" {
		labels[key] = value
	}
}
