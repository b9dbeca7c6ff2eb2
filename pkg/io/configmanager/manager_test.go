package configmanager_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/io/configmanager"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectYAML = `project:
  artifactId: shop
  version: 1.0.0
  buildTool: Gradle
build:
  strategy: JIB
  retries: 2
images:
- name: acme/shop:1.0.0
  build:
    from: eclipse-temurin:21
    env:
      JAVA_OPTS: -Xmx512m
    labels:
      org.opencontainers.image.vendor: Acme
resource:
  namespace: shop
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kubepack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()

	manager := configmanager.NewConfigManager(io.Discard, writeConfig(t, projectYAML))

	project, err := manager.Load()
	require.NoError(t, err)

	assert.True(t, manager.ConfigFileFound())
	assert.Equal(t, v1alpha1.StrategyJib, project.Build.Strategy)
	assert.Equal(t, v1alpha1.BuildToolGradle, project.Java.BuildTool)
	assert.Equal(t, 2, project.Build.Retries)
	assert.Equal(t, "shop", project.Resource.Namespace)

	require.Len(t, project.Images, 1)
	assert.Equal(t, map[string]string{"JAVA_OPTS": "-Xmx512m"}, project.Images[0].Build.Env)
	assert.Equal(t, "Acme", project.Images[0].Build.Labels["org.opencontainers.image.vendor"])

	assert.Equal(t, filepath.Join(".", "build"), project.Java.BuildDirectory)
	assert.Equal(t, v1alpha1.DefaultDeleteWaitRetries, project.Resource.DeleteWaitRetries)
	assert.Equal(t, "shop", project.Helm.Chart)
}

func TestLoad_CachesResult(t *testing.T) {
	t.Parallel()

	manager := configmanager.NewConfigManager(io.Discard, writeConfig(t, projectYAML))

	first, err := manager.Load()
	require.NoError(t, err)

	second, err := manager.Load()
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestLoad_WithoutConfigFile(t *testing.T) {
	t.Parallel()

	manager := configmanager.NewConfigManager(io.Discard, "")

	project, err := manager.Load()
	require.NoError(t, err)

	assert.False(t, manager.ConfigFileFound())
	assert.Equal(t, v1alpha1.StrategyNone, project.Build.Strategy)
	assert.Equal(t, v1alpha1.BuildToolMaven, project.Java.BuildTool)
	assert.Equal(t, v1alpha1.RecreateNone, project.Build.RecreateMode)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	manager := configmanager.NewConfigManager(io.Discard, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := manager.Load()
	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown strategy", content: "build:\n  strategy: kaniko\n"},
		{name: "unknown field", content: "build:\n  stratgy: jib\n"},
		{name: "image without name", content: "images:\n- alias: app\n"},
		{name: "negative retries", content: "build:\n  retries: -1\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			manager := configmanager.NewConfigManager(io.Discard, writeConfig(t, test.content))

			_, err := manager.Load()
			require.ErrorIs(t, err, configmanager.ErrInvalidConfig)
		})
	}
}

//nolint:paralleltest // t.Setenv is not allowed in parallel tests
func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv(configmanager.EnvName("build.strategy"), "docker")
	t.Setenv(configmanager.EnvName("resource.namespace"), "staging")

	manager := configmanager.NewConfigManager(io.Discard, writeConfig(t, projectYAML))

	project, err := manager.Load()
	require.NoError(t, err)

	assert.Equal(t, v1alpha1.StrategyDocker, project.Build.Strategy)
	assert.Equal(t, "staging", project.Resource.Namespace)
	assert.Equal(t, "shop", project.Java.ArtifactID)
}

//nolint:paralleltest // t.Setenv is not allowed in parallel tests
func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv(configmanager.EnvName("build.strategy"), "docker")

	var strategy v1alpha1.Strategy

	flags := pflag.NewFlagSet("build", pflag.ContinueOnError)
	flags.Var(&strategy, "strategy", "build strategy")
	flags.Int("retries", 0, "push retries")

	manager := configmanager.NewConfigManager(io.Discard, writeConfig(t, projectYAML))
	require.NoError(t, manager.BindFlags(flags, map[string]string{
		"strategy": "build.strategy",
		"retries":  "build.retries",
		"missing":  "build.skipTag",
	}))
	require.NoError(t, flags.Parse([]string{"--strategy", "s2i"}))

	project, err := manager.Load()
	require.NoError(t, err)

	assert.Equal(t, v1alpha1.StrategyS2I, project.Build.Strategy)
	assert.Equal(t, 2, project.Build.Retries, "unchanged flags keep the file value")
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "KUBEPACK_BUILD_STRATEGY", configmanager.EnvName("build.strategy"))
	assert.Equal(t, "KUBEPACK_PUSHREGISTRY_REGISTRY", configmanager.EnvName("pushRegistry.registry"))
}
