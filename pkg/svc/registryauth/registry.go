package registryauth

import (
	"strings"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
)

// DockerHubRegistry is the registry assumed for images without a registry.
const DockerHubRegistry = "docker.io"

// ResolveRegistryFor applies the registry precedence to a single image name:
// the registry embedded in imageName, then imageConfigRegistry, then the
// registry of registryConfig. The result is empty when none is set.
func ResolveRegistryFor(
	imageName, imageConfigRegistry string,
	registryConfig *v1alpha1.RegistryConfig,
) string {
	if imageName != "" {
		if registry := v1alpha1.ParseImageName(imageName).Registry; registry != "" {
			return registry
		}
	}

	if imageConfigRegistry != "" {
		return imageConfigRegistry
	}

	return registryConfig.RegistryOrDefault()
}

// ResolveRegistry returns the registry used to push image (isPush) or to pull
// its base image.
func ResolveRegistry(
	isPush bool,
	image *v1alpha1.ImageConfiguration,
	registryConfig *v1alpha1.RegistryConfig,
) string {
	if image == nil {
		return registryConfig.RegistryOrDefault()
	}

	return ResolveRegistryFor(TargetName(isPush, image), image.Registry, registryConfig)
}

// TargetName returns the image name a push (the image itself) or a pull (its
// base image) is about.
func TargetName(isPush bool, image *v1alpha1.ImageConfiguration) string {
	if isPush {
		return image.Name
	}

	if image.Build != nil {
		return image.Build.From
	}

	return ""
}

// GetServer returns the settings entry whose id matches serverID, ignoring
// case, or nil when none matches.
func GetServer(
	settings []v1alpha1.RegistryServerConfiguration,
	serverID string,
) *v1alpha1.RegistryServerConfiguration {
	for index := range settings {
		if strings.EqualFold(settings[index].ID, serverID) {
			return &settings[index]
		}
	}

	return nil
}
