package undeploy

import (
	"context"
	"fmt"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
)

// DeleteAndWait deletes name and polls until it is gone, up to retries polls
// spaced interval apart. A resource that is already gone is not an error.
func DeleteAndWait(
	ctx context.Context,
	client dynamic.ResourceInterface,
	name string,
	retries int,
	interval time.Duration,
) error {
	err := deleteResource(ctx, client, name)
	if err != nil {
		return err
	}

	if retries <= 0 {
		return nil
	}

	backoff := wait.Backoff{Duration: interval, Factor: 1, Steps: retries}

	err = wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		_, err := client.Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}

		return false, nil
	})
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return fmt.Errorf("failed waiting for deletion of %s: %w", name, ctx.Err())
	}

	return fmt.Errorf("%w: %s", ErrStillPresent, name)
}

func deleteResource(ctx context.Context, client dynamic.ResourceInterface, name string) error {
	propagation := metav1.DeletePropagationBackground

	err := client.Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &propagation})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	return nil
}
