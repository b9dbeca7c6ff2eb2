package registryauth_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/client/netretry"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/registryauth"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCipher = errors.New("bad cipher")

type staticKeychain map[string]authn.AuthConfig

func (k staticKeychain) Resolve(resource authn.Resource) (authn.Authenticator, error) {
	config, ok := k[resource.RegistryStr()]
	if !ok {
		return authn.Anonymous, nil
	}

	return authn.FromConfig(config), nil
}

func newResolver(keychain authn.Keychain, env map[string]string) *registryauth.Resolver {
	return registryauth.NewResolver(
		notify.Discard(),
		registryauth.WithKeychain(keychain),
		registryauth.WithGetenv(func(key string) string { return env[key] }),
	)
}

func pushImage(name string) *v1alpha1.ImageConfiguration {
	return &v1alpha1.ImageConfiguration{Name: name, Build: &v1alpha1.BuildConfiguration{From: "eclipse-temurin:21"}}
}

func TestGetRegistryCredentials_FromSettingsWithDecryptor(t *testing.T) {
	t.Parallel()

	config := &v1alpha1.RegistryConfig{
		Settings: []v1alpha1.RegistryServerConfiguration{
			{ID: "QUAY.IO", Username: "robot", Password: "{enc}", Configuration: map[string]string{"email": "r@x.io"}},
		},
		Decryptor: func(ciphertext string) (string, error) {
			return strings.Trim(ciphertext, "{}") + "-plain", nil
		},
	}

	credentials, err := newResolver(nil, nil).GetRegistryCredentials(config, true, pushImage("quay.io/ns/app:1"))

	require.NoError(t, err)
	assert.Equal(t, "robot", credentials.Username)
	assert.Equal(t, "enc-plain", credentials.Password)
	assert.Equal(t, "r@x.io", credentials.Email)
	assert.Equal(t, "quay.io", credentials.Registry)
	assert.Equal(t, "settings", credentials.Source)
}

func TestGetRegistryCredentials_DecryptFailure(t *testing.T) {
	t.Parallel()

	config := &v1alpha1.RegistryConfig{
		Settings:  []v1alpha1.RegistryServerConfiguration{{ID: "quay.io", Username: "robot", Password: "x"}},
		Decryptor: func(string) (string, error) { return "", errCipher },
	}

	_, err := newResolver(nil, nil).GetRegistryCredentials(config, true, pushImage("quay.io/ns/app:1"))

	require.ErrorIs(t, err, registryauth.ErrDecryptPassword)
	require.ErrorIs(t, err, errCipher)
}

func TestGetRegistryCredentials_DockerHubDefault(t *testing.T) {
	t.Parallel()

	config := &v1alpha1.RegistryConfig{
		Settings: []v1alpha1.RegistryServerConfiguration{{ID: "docker.io", Username: "hub", Password: "pw"}},
	}

	credentials, err := newResolver(nil, nil).GetRegistryCredentials(config, true, pushImage("foo/bar:latest"))

	require.NoError(t, err)
	assert.Equal(t, "hub", credentials.Username)
}

func TestGetRegistryCredentials_AuthConfigPrefersModeKeys(t *testing.T) {
	t.Parallel()

	config := &v1alpha1.RegistryConfig{
		AuthConfig: map[string]string{
			"username":      "generic",
			"password":      "generic-pw",
			"push.username": "pusher",
			"push.password": "push-pw",
		},
	}
	resolver := newResolver(nil, nil)

	push, err := resolver.GetRegistryCredentials(config, true, pushImage("quay.io/ns/app"))
	require.NoError(t, err)
	assert.Equal(t, "pusher", push.Username)
	assert.Equal(t, "push-pw", push.Password)

	pull, err := resolver.GetRegistryCredentials(config, false, pushImage("quay.io/ns/app"))
	require.NoError(t, err)
	assert.Equal(t, "generic", pull.Username)
	assert.Equal(t, "docker.io", pull.Registry)
}

func TestGetRegistryCredentials_EncodedAuthConfig(t *testing.T) {
	t.Parallel()

	config := &v1alpha1.RegistryConfig{
		AuthConfig: map[string]string{"auth": base64.StdEncoding.EncodeToString([]byte("user:pa:ss"))},
	}

	credentials, err := newResolver(nil, nil).GetRegistryCredentials(config, true, pushImage("quay.io/ns/app"))

	require.NoError(t, err)
	assert.Equal(t, "user", credentials.Username)
	assert.Equal(t, "pa:ss", credentials.Password)

	config.AuthConfig["auth"] = base64.StdEncoding.EncodeToString([]byte("nocolon"))

	_, err = newResolver(nil, nil).GetRegistryCredentials(config, true, pushImage("quay.io/ns/app"))
	require.ErrorIs(t, err, registryauth.ErrInvalidAuth)
}

func TestGetRegistryCredentials_EnvironmentAndKeychain(t *testing.T) {
	t.Parallel()

	keychain := staticKeychain{"quay.io": {Username: "keychain-user", Password: "keychain-pw"}}
	env := map[string]string{registryauth.EnvUsername: "env-user", registryauth.EnvPassword: "env-pw"}

	fromEnv, err := newResolver(keychain, env).GetRegistryCredentials(nil, true, pushImage("quay.io/ns/app"))
	require.NoError(t, err)
	assert.Equal(t, "env-user", fromEnv.Username)
	assert.Equal(t, "environment", fromEnv.Source)

	fromKeychain, err := newResolver(keychain, nil).GetRegistryCredentials(nil, true, pushImage("quay.io/ns/app"))
	require.NoError(t, err)
	assert.Equal(t, "keychain-user", fromKeychain.Username)
	assert.Equal(t, "keychain-pw", fromKeychain.Password)
	assert.Equal(t, "docker config", fromKeychain.Source)
}

func TestGetRegistryCredentials_SkipExtendedAuth(t *testing.T) {
	t.Parallel()

	keychain := staticKeychain{"quay.io": {Username: "keychain-user", Password: "pw"}}
	config := &v1alpha1.RegistryConfig{
		SkipExtendedAuth: true,
		AuthConfig:       map[string]string{"username": "ignored"},
	}

	credentials, err := newResolver(keychain, map[string]string{registryauth.EnvUsername: "ignored"}).
		GetRegistryCredentials(config, true, pushImage("quay.io/ns/app"))

	require.NoError(t, err)
	assert.True(t, credentials.IsAnonymous())
	assert.Equal(t, authn.Anonymous, credentials.Authenticator())
}

func TestCredentials_Encodings(t *testing.T) {
	t.Parallel()

	credentials := &registryauth.Credentials{Registry: "quay.io", Username: "u", Password: "p"}

	auth, err := credentials.Authenticator().Authorization()
	require.NoError(t, err)
	assert.Equal(t, "u", auth.Username)

	encoded, err := credentials.DockerAuth()
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)

	anonymous, err := (&registryauth.Credentials{}).DockerAuth()
	require.NoError(t, err)
	assert.Empty(t, anonymous)
}

func TestExplainAuthFailure(t *testing.T) {
	t.Parallel()

	denied := errors.New("unauthorized: authentication required")
	anonymous := &registryauth.Credentials{Registry: "quay.io"}
	configured := &registryauth.Credentials{Registry: "quay.io", Username: "u"}

	err := registryauth.ExplainAuthFailure(denied, anonymous)
	require.ErrorIs(t, err, registryauth.ErrMissingCredentials)
	require.ErrorIs(t, err, denied)
	assert.True(t, netretry.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "quay.io")

	assert.Equal(t, denied, registryauth.ExplainAuthFailure(denied, configured))
	require.NoError(t, registryauth.ExplainAuthFailure(nil, anonymous))

	other := errors.New("manifest unknown")
	assert.Equal(t, other, registryauth.ExplainAuthFailure(other, anonymous))
}

func TestGetRegistryCredentials_PackageFunction(t *testing.T) {
	t.Parallel()

	config := &v1alpha1.RegistryConfig{
		SkipExtendedAuth: true,
		Settings:         []v1alpha1.RegistryServerConfiguration{{ID: "quay.io", Username: "robot", Password: "pw"}},
	}

	credentials, err := registryauth.GetRegistryCredentials(config, true, pushImage("quay.io/ns/app"), nil)

	require.NoError(t, err)
	assert.Equal(t, "robot", credentials.Username)
}
