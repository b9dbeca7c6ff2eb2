package registryauth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/client/docker"
	"github.com/devantler-tech/kubepack/pkg/client/netretry"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
)

const (
	// EnvUsername overrides the registry user.
	EnvUsername = "KUBEPACK_REGISTRY_USERNAME"
	// EnvPassword overrides the registry password.
	EnvPassword = "KUBEPACK_REGISTRY_PASSWORD"

	credentialParts = 2
)

// Credentials are the resolved credentials for one registry.
type Credentials struct {
	Registry string
	Username string
	Password string
	Email    string
	// IdentityToken is an OAuth refresh token from a credential helper.
	IdentityToken string
	// Source names where the credentials were found.
	Source string
}

// IsAnonymous reports whether no credentials were found.
func (c *Credentials) IsAnonymous() bool {
	return c == nil || (c.Username == "" && c.Password == "" && c.IdentityToken == "")
}

// Authenticator returns the credentials as a go-containerregistry authenticator.
func (c *Credentials) Authenticator() authn.Authenticator {
	if c.IsAnonymous() {
		return authn.Anonymous
	}

	return authn.FromConfig(authn.AuthConfig{
		Username:      c.Username,
		Password:      c.Password,
		IdentityToken: c.IdentityToken,
	})
}

// DockerAuth returns the credentials encoded for the Docker daemon API.
func (c *Credentials) DockerAuth() (string, error) {
	if c.IsAnonymous() {
		return "", nil
	}

	//nolint:wrapcheck // already wrapped by the docker client package
	return docker.EncodeAuth(c.Username, c.Password, c.Registry)
}

// Resolver looks up registry credentials.
type Resolver struct {
	logger   notify.Logger
	keychain authn.Keychain
	getenv   func(string) string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithKeychain replaces the Docker keychain.
func WithKeychain(keychain authn.Keychain) ResolverOption {
	return func(r *Resolver) { r.keychain = keychain }
}

// WithGetenv replaces the environment lookup.
func WithGetenv(getenv func(string) string) ResolverOption {
	return func(r *Resolver) { r.getenv = getenv }
}

// NewResolver returns a Resolver using the default Docker keychain and the
// process environment.
func NewResolver(logger notify.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = notify.Discard()
	}

	resolver := &Resolver{logger: logger, keychain: authn.DefaultKeychain, getenv: os.Getenv}
	for _, opt := range opts {
		opt(resolver)
	}

	return resolver
}

// GetRegistryCredentials resolves the credentials to push image or pull its
// base image with the default resolver.
func GetRegistryCredentials(
	registryConfig *v1alpha1.RegistryConfig,
	isPush bool,
	image *v1alpha1.ImageConfiguration,
	logger notify.Logger,
) (*Credentials, error) {
	return NewResolver(logger).GetRegistryCredentials(registryConfig, isPush, image)
}

// GetRegistryCredentials resolves the credentials to push image or pull its
// base image. Anonymous credentials are returned when nothing matches.
func (r *Resolver) GetRegistryCredentials(
	registryConfig *v1alpha1.RegistryConfig,
	isPush bool,
	image *v1alpha1.ImageConfiguration,
) (*Credentials, error) {
	return r.ForRegistry(registryConfig, isPush, ResolveRegistry(isPush, image, registryConfig))
}

// ForRegistry resolves the credentials for an already resolved registry host.
func (r *Resolver) ForRegistry(
	registryConfig *v1alpha1.RegistryConfig,
	isPush bool,
	registry string,
) (*Credentials, error) {
	host := registry
	if host == "" {
		host = DockerHubRegistry
	}

	if registryConfig == nil {
		registryConfig = &v1alpha1.RegistryConfig{}
	}

	credentials, err := r.fromSettings(registryConfig, host)
	if err != nil || credentials != nil {
		return credentials, err
	}

	if !registryConfig.SkipExtendedAuth {
		for _, lookup := range []func(*v1alpha1.RegistryConfig, bool, string) (*Credentials, error){
			r.fromAuthConfig, r.fromEnvironment, r.fromKeychain,
		} {
			credentials, err = lookup(registryConfig, isPush, host)
			if err != nil || credentials != nil {
				return credentials, err
			}
		}
	}

	r.logger.Debugf("no credentials found for registry %s, using anonymous access", host)

	return &Credentials{Registry: registry}, nil
}

func (r *Resolver) fromSettings(registryConfig *v1alpha1.RegistryConfig, host string) (*Credentials, error) {
	server := GetServer(registryConfig.Settings, host)
	if server == nil || server.Username == "" {
		return nil, nil //nolint:nilnil // no matching server
	}

	password, err := registryConfig.DecryptPassword(server.Password)
	if err != nil {
		return nil, fmt.Errorf("%w for server %s: %w", ErrDecryptPassword, server.ID, err)
	}

	r.logger.Debugf("using credentials of server %s from settings", server.ID)

	return &Credentials{
		Registry: host,
		Username: server.Username,
		Password: password,
		Email:    server.Configuration["email"],
		Source:   "settings",
	}, nil
}

func (r *Resolver) fromAuthConfig(
	registryConfig *v1alpha1.RegistryConfig,
	isPush bool,
	host string,
) (*Credentials, error) {
	username := registryConfig.AuthValue(isPush, "username")
	password := registryConfig.AuthValue(isPush, "password")

	if encoded := registryConfig.AuthValue(isPush, "auth"); username == "" && encoded != "" {
		var err error

		username, password, err = decodeAuth(encoded)
		if err != nil {
			return nil, err
		}
	}

	if username == "" {
		return nil, nil //nolint:nilnil // not configured
	}

	password, err := registryConfig.DecryptPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w from auth config: %w", ErrDecryptPassword, err)
	}

	return &Credentials{
		Registry: host,
		Username: username,
		Password: password,
		Email:    registryConfig.AuthValue(isPush, "email"),
		Source:   "auth config",
	}, nil
}

func (r *Resolver) fromEnvironment(
	_ *v1alpha1.RegistryConfig,
	_ bool,
	host string,
) (*Credentials, error) {
	username := r.getenv(EnvUsername)
	if username == "" {
		return nil, nil //nolint:nilnil // not configured
	}

	return &Credentials{
		Registry: host,
		Username: username,
		Password: r.getenv(EnvPassword),
		Source:   "environment",
	}, nil
}

func (r *Resolver) fromKeychain(_ *v1alpha1.RegistryConfig, _ bool, host string) (*Credentials, error) {
	if r.keychain == nil {
		return nil, nil //nolint:nilnil // keychain disabled
	}

	registry, err := name.NewRegistry(host, name.WeakValidation)
	if err != nil {
		r.logger.Debugf("skipping keychain lookup for %s: %v", host, err)

		return nil, nil //nolint:nilnil // unparsable host has no keychain entry
	}

	authenticator, err := r.keychain.Resolve(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to read docker credentials for %s: %w", host, err)
	}

	if authenticator == authn.Anonymous {
		return nil, nil //nolint:nilnil // no entry
	}

	config, err := authenticator.Authorization()
	if err != nil {
		return nil, fmt.Errorf("failed to read docker credentials for %s: %w", host, err)
	}

	username, password := config.Username, config.Password
	if username == "" && config.Auth != "" {
		username, password, err = decodeAuth(config.Auth)
		if err != nil {
			return nil, err
		}
	}

	if username == "" && config.IdentityToken == "" {
		return nil, nil //nolint:nilnil // empty entry
	}

	return &Credentials{
		Registry:      host,
		Username:      username,
		Password:      password,
		IdentityToken: config.IdentityToken,
		Source:        "docker config",
	}, nil
}

func decodeAuth(encoded string) (string, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidAuth, err)
	}

	parts := strings.SplitN(string(decoded), ":", credentialParts)
	if len(parts) != credentialParts {
		return "", "", ErrInvalidAuth
	}

	return parts[0], parts[1], nil
}

// ExplainAuthFailure marks an authentication failure against a registry no
// credentials were found for with ErrMissingCredentials. Other errors are
// returned unchanged.
func ExplainAuthFailure(err error, credentials *Credentials) error {
	if err == nil || !netretry.IsUnauthorized(err) || !credentials.IsAnonymous() {
		return err
	}

	registry := DockerHubRegistry
	if credentials != nil && credentials.Registry != "" {
		registry = credentials.Registry
	}

	if errors.Is(err, ErrMissingCredentials) {
		return err
	}

	return fmt.Errorf("%w %s: %w", ErrMissingCredentials, registry, err)
}
