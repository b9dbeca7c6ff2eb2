package cmd_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devantler-tech/kubepack/pkg/cli/cmd"
	dockerclient "github.com/devantler-tech/kubepack/pkg/client/docker"
	"github.com/devantler-tech/kubepack/pkg/cmd/runner"
	"github.com/devantler-tech/kubepack/pkg/di"
	"github.com/devantler-tech/kubepack/pkg/k8s"
	"github.com/devantler-tech/kubepack/pkg/svc/apply"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	errNoCluster = errors.New("no cluster in tests")
	errNoDaemon  = errors.New("no docker daemon in tests")
)

// newTestRuntime returns a runtime without cluster or daemon access that runs
// processes through commandRunner.
func newTestRuntime(commandRunner runner.CommandRunner) *di.Runtime {
	return di.New(func(injector di.Injector) error {
		do.Provide(injector, func(do.Injector) (di.ClusterClientsFactory, error) {
			return func(string, string) (*k8s.Clients, error) {
				return nil, errNoCluster
			}, nil
		})
		do.Provide(injector, func(do.Injector) (di.DaemonClientFactory, error) {
			return func() (dockerclient.DaemonClient, error) {
				return nil, errNoDaemon
			}, nil
		})
		do.Provide(injector, func(do.Injector) (runner.CommandRunner, error) {
			return commandRunner, nil
		})

		return nil
	})
}

func writeProject(t *testing.T, extra string) (string, string) {
	t.Helper()

	base := t.TempDir()
	config := "project:\n  artifactId: shop\n  version: 1.0.0\n  baseDirectory: " + base + "\n" + extra
	path := filepath.Join(base, "kubepack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	return base, path
}

func run(t *testing.T, runtime *di.Runtime, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := cmd.NewRootCmdWithRuntime("1.0.0", "abc123", "2026-01-01", runtime)
	root.SetOut(&out)
	root.SetArgs(args)

	err := cmd.Execute(root)

	return out.String(), err
}

func TestNewRootCmdVersionFormatting(t *testing.T) {
	t.Parallel()

	root := cmd.NewRootCmd("1.2.3", "abc123", "2025-08-17")

	assert.Equal(t, "1.2.3 (Built on 2025-08-17 from Git SHA abc123)", root.Version)
}

func TestExecuteShowsHelp(t *testing.T) {
	t.Parallel()

	out, err := run(t, newTestRuntime(nil))
	require.NoError(t, err)

	for _, command := range []string{"build", "push", "resource", "apply", "undeploy", "helm", "schema"} {
		assert.Contains(t, out, command)
	}
}

func TestSchemaCommand(t *testing.T) {
	t.Parallel()

	out, err := run(t, newTestRuntime(nil), "schema")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"buildpacks"`)
	assert.Contains(t, out, `"pushRegistry"`)
}

func TestExecuteWithNonexistentCommand(t *testing.T) {
	t.Parallel()

	_, err := run(t, newTestRuntime(nil), "deploy-everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestResourceCommand(t *testing.T) {
	t.Parallel()

	base, config := writeProject(t, `images:
- name: acme/shop:1.0.0
  build:
    from: eclipse-temurin:21
    ports: ["8080"]
`)

	out, err := run(t, newTestRuntime(nil), "resource", "--config", config, "--namespace", "store", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "manifest written to")

	manifest := filepath.Join(base, "target", "classes", "META-INF", "jkube", "kubernetes.yml")
	content, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(content), "namespace: store")

	persisted, err := summary.Load(filepath.Join(base, "target", "kubepack", summary.FileName))
	require.NoError(t, err)
	assert.True(t, persisted.Successful)
	assert.Equal(t, []string{manifest}, persisted.GeneratedResources)
}

func writeSummary(t *testing.T, base string, previous summary.Summary) string {
	t.Helper()

	path := filepath.Join(base, "target", "kubepack", summary.FileName)
	content, err := json.Marshal(previous)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, content, 0o600))

	return path
}

func TestUndeployWithoutManifestEndsRun(t *testing.T) {
	t.Parallel()

	base, config := writeProject(t, "")
	path := writeSummary(t, base, summary.Summary{Actions: []string{"build", "push"}, Successful: true})

	_, err := run(t, newTestRuntime(nil), "undeploy", "--config", config)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestFreshSummaryDiscardsPreviousRun(t *testing.T) {
	t.Parallel()

	base, config := writeProject(t, `images:
- name: acme/shop:1.0.0
  build:
    from: eclipse-temurin:21
`)
	path := writeSummary(t, base, summary.Summary{Actions: []string{"build"}, Images: []summary.Image{{Name: "old"}}})

	_, err := run(t, newTestRuntime(nil), "resource", "--config", config, "--fresh-summary")
	require.NoError(t, err)

	persisted, err := summary.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"resource"}, persisted.Actions)
	assert.Empty(t, persisted.Images)
}

func TestApplyWithoutManifestFails(t *testing.T) {
	t.Parallel()

	base, config := writeProject(t, "")

	_, err := run(t, newTestRuntime(nil), "apply", "--config", config)
	require.ErrorIs(t, err, apply.ErrNoManifest)

	persisted, loadErr := summary.Load(filepath.Join(base, "target", "kubepack", summary.FileName))
	require.NoError(t, loadErr)
	assert.False(t, persisted.Successful)
	assert.NotEmpty(t, persisted.FailureCause)
}

func TestBuildRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	_, config := writeProject(t, "")

	_, err := run(t, newTestRuntime(nil), "build", "--config", config, "--strategy", "kaniko")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid build strategy")
}

func TestBuildWithSpringStrategy(t *testing.T) {
	t.Parallel()

	commandRunner := runner.NewMockCommandRunner()
	commandRunner.On("Run", mock.Anything, mock.MatchedBy(func(command runner.Command) bool {
		return command.Name == "mvn" && len(command.Args) > 0 && command.Args[0] == "spring-boot:build-image"
	})).Return(runner.CommandResult{}, nil).Once()

	_, config := writeProject(t, `  plugins:
  - groupId: org.springframework.boot
    artifactId: spring-boot-maven-plugin
    version: 3.3.1
build:
  strategy: spring
images:
- name: acme/shop:1.0.0
  build:
    from: eclipse-temurin:21
`)

	out, err := run(t, newTestRuntime(commandRunner), "build", "--config", config)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "built 1 image with the spring strategy"), out)

	commandRunner.AssertExpectations(t)
}
