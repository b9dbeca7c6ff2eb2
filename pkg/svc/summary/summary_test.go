package summary_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPushFailed = errors.New("push failed")

func TestRecorder_PersistsAcrossInvocations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	build := summary.Init(dir, notify.Discard())
	build.AddAction("build")
	build.SetBuildStrategy("docker")
	build.AddImage(summary.Image{Name: "foo/bar:latest", BaseImage: "eclipse-temurin:21", Built: true})

	push := summary.Init(dir, notify.Discard())
	push.AddAction("push")
	push.AddImage(summary.Image{Name: "foo/bar:latest", Pushed: true})
	push.SetSuccessful()

	loaded, err := summary.Load(filepath.Join(dir, summary.FileName))
	require.NoError(t, err)

	assert.Equal(t, []string{"build", "push"}, loaded.Actions)
	assert.Equal(t, "docker", loaded.BuildStrategy)
	require.Len(t, loaded.Images, 1)
	assert.Equal(t, summary.Image{
		Name:      "foo/bar:latest",
		BaseImage: "eclipse-temurin:21",
		Built:     true,
		Pushed:    true,
	}, loaded.Images[0])
	assert.True(t, loaded.Successful)
}

func TestRecorder_FailureLastWriteWins(t *testing.T) {
	t.Parallel()

	recorder := summary.Init("", notify.Discard())

	recorder.SetSuccessful()
	recorder.SetFailure(errPushFailed)
	assert.False(t, recorder.Snapshot().Successful)
	assert.Equal(t, "push failed", recorder.Snapshot().FailureCause)

	recorder.SetSuccessful()
	assert.True(t, recorder.Snapshot().Successful)
	assert.Empty(t, recorder.Snapshot().FailureCause)
}

func TestRecorder_AdditiveSettersDeduplicate(t *testing.T) {
	t.Parallel()

	recorder := summary.Init("", notify.Discard())

	recorder.AddAppliedResource("Deployment/app")
	recorder.AddAppliedResource("Deployment/app")
	recorder.AddAppliedResource("Service/app")
	recorder.AddUndeployedResource("ConfigMap/settings")
	recorder.AddGeneratedResource("target/kubernetes.yml")
	recorder.AddBuildConfig("app-s2i")
	recorder.AddHelmChart(summary.HelmChart{Name: "app", Version: "1.0.0"})
	recorder.AddHelmChart(summary.HelmChart{Name: "app", Version: "1.0.1"})

	snapshot := recorder.Snapshot()
	assert.Equal(t, []string{"Deployment/app", "Service/app"}, snapshot.AppliedResources)
	assert.Equal(t, []string{"ConfigMap/settings"}, snapshot.UndeployedResources)
	assert.Equal(t, []string{"target/kubernetes.yml"}, snapshot.GeneratedResources)
	assert.Equal(t, []string{"app-s2i"}, snapshot.BuildConfigs)
	assert.Equal(t, []summary.HelmChart{{Name: "app", Version: "1.0.1"}}, snapshot.HelmCharts)
}

func TestRecorder_ClearRemovesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	recorder := summary.Init(dir, notify.Discard())
	recorder.AddAction("apply")
	require.FileExists(t, recorder.Path())

	recorder.Clear()
	recorder.Clear()

	_, err := os.Stat(recorder.Path())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, summary.Summary{}, recorder.Snapshot())
}

func TestRecorder_InvalidFileIsIgnored(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, summary.FileName), []byte("{"), 0o600))

	var logs bytes.Buffer

	recorder := summary.Init(dir, notify.NewLogger(&logs, false))

	assert.Equal(t, summary.Summary{}, recorder.Snapshot())
	assert.Contains(t, logs.String(), "ignoring previous summary")

	_, err := summary.Load(recorder.Path())
	require.ErrorIs(t, err, summary.ErrInvalidSummary)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var recorder *summary.Recorder

	assert.NotPanics(t, func() {
		recorder.AddAction("build")
		recorder.SetFailureAndCause("boom")
		recorder.Clear()
		recorder.Print(true)
	})
	assert.Empty(t, recorder.Path())
}

func TestRecorder_Print(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	recorder := summary.Init("", notify.Discard(), summary.WithOutput(&out))
	recorder.SetBuildStrategy("jib")
	recorder.AddImage(summary.Image{Name: "registry.example.com/app:1.0", Built: true})
	recorder.AddAppliedResource("Deployment/app")
	recorder.AddHelmChart(summary.HelmChart{Name: "app", Version: "1.0", Archive: "app-1.0.tgz"})
	recorder.SetFailureAndCause("cluster unreachable")

	recorder.Print(false)
	assert.Empty(t, out.String())

	recorder.Print(true)

	output := out.String()
	assert.Contains(t, output, "kubepack summary")
	assert.Contains(t, output, "Build strategy:\n  - jib")
	assert.Contains(t, output, "  - registry.example.com/app:1.0\n    Built: yes")
	assert.Contains(t, output, "Applied resources:\n  - Deployment/app")
	assert.Contains(t, output, "Archive: app-1.0.tgz")
	assert.Contains(t, output, "run failed: cluster unreachable")
}
