package build

import (
	"context"
	"path/filepath"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/client/netretry"
	"github.com/devantler-tech/kubepack/pkg/notify"
)

// TmpDirName is the per-image directory holding build artifacts.
const TmpDirName = "tmp"

// ImageDirectory returns the per-image directory below buildDirectory.
func ImageDirectory(buildDirectory string, image *v1alpha1.ImageConfiguration) string {
	return filepath.Join(buildDirectory, image.ShortName())
}

// ArtifactPath returns the path of a build artifact for image.
func ArtifactPath(buildDirectory string, image *v1alpha1.ImageConfiguration, fileName string) string {
	return filepath.Join(ImageDirectory(buildDirectory, image), TmpDirName, fileName)
}

// PushTargets returns the references pushed for image: the primary name
// qualified with registry, followed by the additional tags unless skipTag is set.
func PushTargets(image *v1alpha1.ImageConfiguration, registry string, skipTag bool) []string {
	imageName := v1alpha1.ParseImageName(image.Name)
	targets := []string{imageName.FullName(registry)}

	if skipTag || image.Build == nil {
		return targets
	}

	repository := imageName.NameWithoutTag(registry)
	for _, tag := range image.Build.Tags {
		if tag == "" || tag == imageName.Tag {
			continue
		}

		targets = append(targets, repository+":"+tag)
	}

	return targets
}

// PushWithRetry runs push, retrying transient failures up to retries times.
// Authentication failures are never retried.
func PushWithRetry(
	ctx context.Context,
	logger notify.Logger,
	retries int,
	reference string,
	push func(ctx context.Context) error,
) error {
	//nolint:wrapcheck // netretry wraps exhaustion and auth failures
	return netretry.Do(ctx, netretry.NewPolicy(retries), func(attempt int) error {
		if attempt > 0 {
			logger.Warnf("retrying push of %s (attempt %d of %d)", reference, attempt+1, retries+1)
		}

		return push(ctx)
	})
}
