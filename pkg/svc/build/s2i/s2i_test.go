package s2i_test

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/svc/build"
	"github.com/devantler-tech/kubepack/pkg/svc/build/s2i"
	"github.com/devantler-tech/kubepack/pkg/svc/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	k8stesting "k8s.io/client-go/testing"
)

const namespace = "builds"

var errStartFailed = errors.New("start failed")

// fakeStarter records the build input and creates a Build in the requested phase.
type fakeStarter struct {
	mu      sync.Mutex
	client  *dynamicfake.FakeDynamicClient
	phase   string
	entries []string
	config  string
	err     error
}

func (f *fakeStarter) InstantiateBinary(
	ctx context.Context,
	namespace, buildConfig string,
	input io.Reader,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}

	f.config = buildConfig

	reader := tar.NewReader(input)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", err
		}

		f.entries = append(f.entries, header.Name)
	}

	name := buildConfig + "-1"
	buildObject := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "build.openshift.io/v1",
		"kind":       "Build",
		"metadata":   map[string]any{"name": name, "namespace": namespace},
		"status":     map[string]any{"phase": f.phase, "message": "assemble script failed"},
	}}

	_, err := f.client.Resource(s2i.BuildResource).Namespace(namespace).
		Create(ctx, buildObject, metav1.CreateOptions{})

	return name, err
}

func newFakeClient(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(
		runtime.NewScheme(),
		map[schema.GroupVersionResource]string{
			s2i.ImageStreamResource: "ImageStreamList",
			s2i.BuildConfigResource: "BuildConfigList",
			s2i.BuildResource:       "BuildList",
		},
		objects...,
	)
}

type fixture struct {
	client   *dynamicfake.FakeDynamicClient
	starter  *fakeStarter
	recorder *summary.Recorder
	baseDir  string
}

func newFixture(t *testing.T, phase string, objects ...runtime.Object) *fixture {
	t.Helper()

	baseDir := t.TempDir()
	appDir := filepath.Join(baseDir, "target", "app")
	require.NoError(t, os.MkdirAll(appDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "app.jar"), []byte("jar"), 0o600))

	client := newFakeClient(objects...)

	return &fixture{
		client:   client,
		starter:  &fakeStarter{client: client, phase: phase},
		recorder: summary.Init("", notify.Discard()),
		baseDir:  baseDir,
	}
}

func (f *fixture) strategy(mode v1alpha1.RecreateMode) *s2i.Strategy {
	return s2i.New(s2i.Options{
		Config: v1alpha1.BuildServiceConfig{
			BuildDirectory:     filepath.Join(f.baseDir, "target", "docker"),
			S2IBuildNameSuffix: "-s2i",
			RecreateMode:       mode,
		},
		BaseDirectory: f.baseDir,
		Cluster: func() (*s2i.Cluster, error) {
			return &s2i.Cluster{Dynamic: f.client, Starter: f.starter, Namespace: namespace}, nil
		},
		Recorder:     f.recorder,
		PollInterval: 10 * time.Millisecond,
	})
}

func sourceImage() *v1alpha1.ImageConfiguration {
	return &v1alpha1.ImageConfiguration{
		Name: "example/app:1.0",
		Build: &v1alpha1.BuildConfiguration{
			From:       "registry.access.redhat.com/ubi9/openjdk-21:latest",
			Env:        map[string]string{"JAVA_APP_JAR": "app.jar"},
			Assemblies: []v1alpha1.AssemblyConfiguration{{Source: "target/app", TargetDir: "/deployments"}},
		},
	}
}

func get(t *testing.T, client *dynamicfake.FakeDynamicClient, gvr schema.GroupVersionResource, name string) *unstructured.Unstructured {
	t.Helper()

	obj, err := client.Resource(gvr).Namespace(namespace).Get(context.Background(), name, metav1.GetOptions{})
	require.NoError(t, err)

	return obj
}

func TestStrategy_SourceBuild(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Complete")

	require.NoError(t, f.strategy(v1alpha1.RecreateNone).Build(context.Background(), sourceImage()))

	imageStream := get(t, f.client, s2i.ImageStreamResource, "app")
	assert.Equal(t, "kubepack", imageStream.GetLabels()[s2i.ManagedByLabel])

	buildConfig := get(t, f.client, s2i.BuildConfigResource, "app-s2i")

	strategyType, _, _ := unstructured.NestedString(buildConfig.Object, "spec", "strategy", "type")
	assert.Equal(t, "Source", strategyType)

	from, _, _ := unstructured.NestedString(buildConfig.Object, "spec", "strategy", "sourceStrategy", "from", "name")
	assert.Equal(t, "registry.access.redhat.com/ubi9/openjdk-21:latest", from)

	output, _, _ := unstructured.NestedString(buildConfig.Object, "spec", "output", "to", "name")
	assert.Equal(t, "app:1.0", output)

	sourceType, _, _ := unstructured.NestedString(buildConfig.Object, "spec", "source", "type")
	assert.Equal(t, "Binary", sourceType)

	assert.Equal(t, "app-s2i", f.starter.config)
	assert.Equal(t, []string{"deployments/app.jar"}, f.starter.entries)

	snapshot := f.recorder.Snapshot()
	assert.Equal(t, []string{"app-s2i"}, snapshot.BuildConfigs)
	require.Len(t, snapshot.Images, 1)
	assert.Equal(t, "app", snapshot.Images[0].ImageStreamUsed)
}

func TestStrategy_DockerBuild(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Complete")
	require.NoError(t, os.WriteFile(filepath.Join(f.baseDir, "Dockerfile"), []byte("FROM scratch\n"), 0o600))

	image := &v1alpha1.ImageConfiguration{
		Name:  "example/app:1.0",
		Build: &v1alpha1.BuildConfiguration{Dockerfile: "Dockerfile", Args: map[string]string{"VERSION": "1.0"}},
	}

	require.NoError(t, f.strategy(v1alpha1.RecreateNone).Build(context.Background(), image))

	buildConfig := get(t, f.client, s2i.BuildConfigResource, "app-s2i")

	dockerfile, _, _ := unstructured.NestedString(buildConfig.Object, "spec", "strategy", "dockerStrategy", "dockerfilePath")
	assert.Equal(t, "Dockerfile", dockerfile)

	args, _, _ := unstructured.NestedSlice(buildConfig.Object, "spec", "strategy", "dockerStrategy", "buildArgs")
	assert.Equal(t, []any{map[string]any{"name": "VERSION", "value": "1.0"}}, args)

	assert.Contains(t, f.starter.entries, "Dockerfile")
	assert.Contains(t, f.starter.entries, "target/app/app.jar")
}

func TestStrategy_UpdatesExistingBuildConfig(t *testing.T) {
	t.Parallel()

	existing := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "build.openshift.io/v1",
		"kind":       "BuildConfig",
		"metadata":   map[string]any{"name": "app-s2i", "namespace": namespace},
		"spec":       map[string]any{"runPolicy": "Parallel"},
	}}

	f := newFixture(t, "Complete", existing)

	require.NoError(t, f.strategy(v1alpha1.RecreateNone).Build(context.Background(), sourceImage()))

	buildConfig := get(t, f.client, s2i.BuildConfigResource, "app-s2i")
	runPolicy, _, _ := unstructured.NestedString(buildConfig.Object, "spec", "runPolicy")
	assert.Equal(t, "Serial", runPolicy)

	for _, action := range f.client.Actions() {
		assert.NotEqual(t, "delete", action.GetVerb())
	}
}

func TestStrategy_RecreateDeletesObjects(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Complete")

	require.NoError(t, f.strategy(v1alpha1.RecreateAll).Build(context.Background(), sourceImage()))

	var deleted []string

	for _, action := range f.client.Actions() {
		if deleteAction, ok := action.(k8stesting.DeleteAction); ok {
			deleted = append(deleted, deleteAction.GetResource().Resource+"/"+deleteAction.GetName())
		}
	}

	assert.Equal(t, []string{"buildconfigs/app-s2i", "imagestreams/app"}, deleted)
}

func TestStrategy_BuildFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Failed")

	err := f.strategy(v1alpha1.RecreateNone).Build(context.Background(), sourceImage())
	require.ErrorIs(t, err, s2i.ErrBuildFailed)
	assert.Contains(t, err.Error(), "assemble script failed")
	assert.Empty(t, f.recorder.Snapshot().BuildConfigs)
}

func TestStrategy_StartFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Complete")
	f.starter.err = errStartFailed

	err := f.strategy(v1alpha1.RecreateNone).Build(context.Background(), sourceImage())
	require.ErrorIs(t, err, errStartFailed)
}

func TestStrategy_SourceBuildRequiresBaseImage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Complete")
	image := sourceImage()
	image.Build.From = ""

	err := f.strategy(v1alpha1.RecreateNone).Build(context.Background(), image)
	require.ErrorIs(t, err, s2i.ErrMissingBaseImage)
}

func TestStrategy_PushIsNoop(t *testing.T) {
	t.Parallel()

	strategy := s2i.New(s2i.Options{})

	require.NoError(t, strategy.Push(context.Background(), sourceImage(), build.PushRequest{Retries: 3}))
	require.ErrorIs(t, strategy.Build(context.Background(), sourceImage()), s2i.ErrNoCluster)
}

func TestRESTBuildStarter(t *testing.T) {
	t.Parallel()

	var received []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost ||
			r.URL.Path != "/apis/build.openshift.io/v1/namespaces/builds/buildconfigs/app-s2i/instantiatebinary" {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		received, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kind":"Build","apiVersion":"build.openshift.io/v1","metadata":{"name":"app-s2i-7"}}`))
	}))
	t.Cleanup(server.Close)

	clientset, err := kubernetes.NewForConfig(&rest.Config{Host: server.URL})
	require.NoError(t, err)

	starter := &s2i.RESTBuildStarter{Client: clientset.Discovery().RESTClient()}

	name, err := starter.InstantiateBinary(context.Background(), namespace, "app-s2i", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, "app-s2i-7", name)
	assert.Equal(t, "payload", string(received))

	_, err = starter.InstantiateBinary(context.Background(), namespace, "missing", strings.NewReader("payload"))
	require.Error(t, err)
}
