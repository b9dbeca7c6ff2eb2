package oci

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
)

func remoteOptions(ctx context.Context, auth authn.Authenticator) []remote.Option {
	if auth == nil {
		auth = authn.Anonymous
	}

	return []remote.Option{remote.WithContext(ctx), remote.WithAuth(auth)}
}

// Pull fetches the image for platform from the registry.
func Pull(
	ctx context.Context,
	ref name.Reference,
	auth authn.Authenticator,
	platform *v1.Platform,
) (v1.Image, error) {
	options := remoteOptions(ctx, auth)
	if platform != nil {
		options = append(options, remote.WithPlatform(*platform))
	}

	img, err := remote.Image(ref, options...)
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", ref, err)
	}

	return img, nil
}

// Push writes img to ref.
func Push(ctx context.Context, ref name.Reference, img v1.Image, auth authn.Authenticator) error {
	err := remote.Write(ref, img, remoteOptions(ctx, auth)...)
	if err != nil {
		return fmt.Errorf("push %s: %w", ref, err)
	}

	return nil
}

// Tag points tag at img, which must already be present in the repository.
func Tag(ctx context.Context, tag name.Tag, img v1.Image, auth authn.Authenticator) error {
	err := remote.Tag(tag, img, remoteOptions(ctx, auth)...)
	if err != nil {
		return fmt.Errorf("tag %s: %w", tag, err)
	}

	return nil
}

// Exists reports whether ref resolves in its registry. A missing repository
// or manifest is reported as false without error.
func Exists(ctx context.Context, ref name.Reference, auth authn.Authenticator) (bool, error) {
	_, err := remote.Head(ref, remoteOptions(ctx, auth)...)
	if err == nil {
		return true, nil
	}

	var transportErr *transport.Error
	if errors.As(err, &transportErr) && transportErr.StatusCode == http.StatusNotFound {
		return false, nil
	}

	return false, fmt.Errorf("check %s: %w", ref, err)
}
