package merge_test

import (
	"testing"

	"github.com/devantler-tech/kubepack/pkg/notify"
	"github.com/devantler-tech/kubepack/pkg/resource/loader"
	"github.com/devantler-tech/kubepack/pkg/resource/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

func decode(t *testing.T, manifest string) *unstructured.Unstructured {
	t.Helper()

	resources, err := loader.Decode([]byte(manifest))
	require.NoError(t, err)
	require.Len(t, resources, 1)

	return resources[0]
}

func containersOf(t *testing.T, obj *unstructured.Unstructured, path ...string) []map[string]any {
	t.Helper()

	list, found, err := unstructured.NestedSlice(obj.Object, path...)
	require.NoError(t, err)
	require.True(t, found)

	containers := make([]map[string]any, 0, len(list))
	for _, item := range list {
		container, ok := item.(map[string]any)
		require.True(t, ok)

		containers = append(containers, container)
	}

	return containers
}

func marshal(t *testing.T, obj *unstructured.Unstructured) string {
	t.Helper()

	content, err := yaml.Marshal(obj.Object)
	require.NoError(t, err)

	return string(content)
}

const generatedDeployment = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
  labels:
    app: app
    provider: jkube
    group: org.example
  annotations:
    jkube.eclipse.org/git-commit: abc123
spec:
  replicas: 1
  selector:
    matchLabels:
      app: app
  template:
    metadata:
      labels:
        app: app
        provider: jkube
    spec:
      containers:
      - name: a
        image: example/a:1.0
        imagePullPolicy: IfNotPresent
        env:
        - name: JAVA_OPTS
          value: -Xmx256m
        - name: KUBERNETES_NAMESPACE
          valueFrom:
            fieldRef:
              fieldPath: metadata.namespace
        ports:
        - name: http
          containerPort: 8080
          protocol: TCP
        - name: jolokia
          containerPort: 8778
          protocol: TCP
        readinessProbe:
          httpGet:
            path: /ready
            port: 8080
        securityContext:
          privileged: false
      - name: b
        image: example/b:1.0
        args:
        - --verbose
`

const namelessFragment = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
  labels:
    provider: ""
    tier: backend
spec:
  replicas: 3
  template:
    metadata:
      labels:
        provider: ""
    spec:
      containers:
      - env:
        - name: JAVA_OPTS
          value: -Xmx1g
        - name: EXTRA
          value: "yes"
        ports:
        - name: web
          containerPort: 8080
        - name: debug
          containerPort: 5005
        livenessProbe:
          tcpSocket:
            port: 8080
`

func TestMerge_ContainerAlignmentByPosition(t *testing.T) {
	t.Parallel()

	generated := decode(t, generatedDeployment)
	merger := merge.NewMerger(notify.Discard(), merge.Options{})

	result, err := merger.Merge(generated, decode(t, namelessFragment))
	require.NoError(t, err)

	assert.Equal(t, "a", result.ApplicationContainer)

	containers := containersOf(t, result.Resource, "spec", "template", "spec", "containers")
	require.Len(t, containers, 2)

	first := containers[0]
	assert.Equal(t, "a", first["name"])
	assert.Equal(t, "example/a:1.0", first["image"])
	assert.Equal(t, "IfNotPresent", first["imagePullPolicy"])
	assert.Equal(t, []any{
		map[string]any{"name": "JAVA_OPTS", "value": "-Xmx1g"},
		map[string]any{"name": "EXTRA", "value": "yes"},
		map[string]any{
			"name": "KUBERNETES_NAMESPACE",
			"valueFrom": map[string]any{
				"fieldRef": map[string]any{"fieldPath": "metadata.namespace"},
			},
		},
	}, first["env"])
	assert.Equal(t, []any{
		map[string]any{"name": "web", "containerPort": int64(8080)},
		map[string]any{"name": "debug", "containerPort": int64(5005)},
		map[string]any{"name": "jolokia", "containerPort": int64(8778), "protocol": "TCP"},
	}, first["ports"])
	assert.Contains(t, first, "readinessProbe")
	assert.Contains(t, first, "livenessProbe")
	assert.Contains(t, first, "securityContext")
	assert.NotContains(t, first, "resources")

	originalB := containersOf(t, generated, "spec", "template", "spec", "containers")[1]
	assert.Equal(t, originalB, containers[1])
}

func TestMerge_PodControllerSpecAndMetadata(t *testing.T) {
	t.Parallel()

	result, err := merge.MergeResources(
		decode(t, generatedDeployment), decode(t, namelessFragment), notify.Discard(), false,
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"app": "app", "group": "org.example", "tier": "backend"}, result.GetLabels())
	assert.Equal(t, map[string]string{"jkube.eclipse.org/git-commit": "abc123"}, result.GetAnnotations())

	replicas, _, err := unstructured.NestedInt64(result.Object, "spec", "replicas")
	require.NoError(t, err)
	assert.Equal(t, int64(3), replicas)

	selector, _, err := unstructured.NestedStringMap(result.Object, "spec", "selector", "matchLabels")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"app": "app"}, selector)

	templateLabels, _, err := unstructured.NestedStringMap(result.Object, "spec", "template", "metadata", "labels")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"app": "app"}, templateLabels)
}

func TestMerge_SidecarAlignmentByName(t *testing.T) {
	t.Parallel()

	fragment := decode(t, `apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  template:
    spec:
      containers:
      - name: b
        image: example/b:2.0
      - env:
        - name: MODE
          value: sidecar
`)

	merger := merge.NewMerger(notify.Discard(), merge.Options{SidecarAlignment: true})

	result, err := merger.Merge(decode(t, generatedDeployment), fragment)
	require.NoError(t, err)

	containers := containersOf(t, result.Resource, "spec", "template", "spec", "containers")
	require.Len(t, containers, 2)

	assert.Equal(t, "b", containers[0]["name"])
	assert.Equal(t, "example/b:2.0", containers[0]["image"])
	assert.NotContains(t, containers[0], "args")

	assert.Equal(t, "a", containers[1]["name"])
	assert.Equal(t, "example/a:1.0", containers[1]["image"])
	assert.Equal(t, "b", result.ApplicationContainer)
}

func TestMerge_DefaultsContainerNameWithoutGeneratedContainers(t *testing.T) {
	t.Parallel()

	generated := decode(t, `apiVersion: apps/v1
kind: StatefulSet
metadata:
  name: db
spec:
  serviceName: db
`)
	fragment := decode(t, `apiVersion: apps/v1
kind: StatefulSet
metadata:
  name: db
spec:
  template:
    spec:
      containers:
      - image: postgres:16
      - image: busybox
`)

	merger := merge.NewMerger(notify.Discard(), merge.Options{DefaultContainerName: "my-artifact"})

	result, err := merger.Merge(generated, fragment)
	require.NoError(t, err)

	containers := containersOf(t, result.Resource, "spec", "template", "spec", "containers")
	assert.Equal(t, "my-artifact", containers[0]["name"])
	assert.NotContains(t, containers[1], "name")
	assert.Equal(t, "my-artifact", result.ApplicationContainer)

	serviceName, _, err := unstructured.NestedString(result.Resource.Object, "spec", "serviceName")
	require.NoError(t, err)
	assert.Equal(t, "db", serviceName)
}

func TestMerge_TakesGeneratedContainersWhenFragmentHasNone(t *testing.T) {
	t.Parallel()

	generated := decode(t, generatedDeployment)
	fragment := decode(t, `apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  replicas: 2
`)

	result, err := merge.NewMerger(nil, merge.Options{}).Merge(generated, fragment)
	require.NoError(t, err)

	assert.Equal(t,
		containersOf(t, generated, "spec", "template", "spec", "containers"),
		containersOf(t, result.Resource, "spec", "template", "spec", "containers"),
	)
	assert.Equal(t, "a", result.ApplicationContainer)
}

func TestMerge_CronJobTemplate(t *testing.T) {
	t.Parallel()

	generated := decode(t, `apiVersion: batch/v1
kind: CronJob
metadata:
  name: report
spec:
  schedule: "0 * * * *"
  jobTemplate:
    spec:
      template:
        spec:
          containers:
          - name: report
            image: example/report:1.0
`)
	fragment := decode(t, `apiVersion: batch/v1
kind: CronJob
metadata:
  name: report
spec:
  jobTemplate:
    spec:
      template:
        spec:
          containers:
          - args: ["--daily"]
`)

	result, err := merge.NewMerger(nil, merge.Options{}).Merge(generated, fragment)
	require.NoError(t, err)

	containers := containersOf(t, result.Resource, "spec", "jobTemplate", "spec", "template", "spec", "containers")
	assert.Equal(t, "report", containers[0]["name"])
	assert.Equal(t, "example/report:1.0", containers[0]["image"])
	assert.Equal(t, []any{"--daily"}, containers[0]["args"])
}

func TestMerge_ConfigMapData(t *testing.T) {
	t.Parallel()

	generated := decode(t, `apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  labels:
    app: app
data:
  application.properties: server.port=8080
  logging: debug
`)
	fragment := decode(t, `apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  labels:
    app: ""
data:
  logging: ""
  extra: "true"
`)

	result, err := merge.MergeResources(generated, fragment, notify.Discard(), false)
	require.NoError(t, err)

	data, _, err := unstructured.NestedStringMap(result.Object, "data")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"application.properties": "server.port=8080", "extra": "true"}, data)
	assert.Empty(t, result.GetLabels())
}

func TestMerge_GenericKindKeepsFragment(t *testing.T) {
	t.Parallel()

	generated := decode(t, `apiVersion: v1
kind: Service
metadata:
  name: app
  labels:
    app: app
    expose: "true"
spec:
  type: ClusterIP
  selector:
    app: app
  ports:
  - name: http
    port: 8080
`)
	fragment := decode(t, `apiVersion: v1
kind: Service
metadata:
  name: app
  labels:
    expose: ""
    team: shop
  annotations:
    prometheus.io/scrape: "true"
spec:
  type: NodePort
  ports:
  - name: web
    port: 80
    targetPort: 8080
`)

	result, err := merge.MergeResources(generated, fragment, notify.Discard(), false)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"app": "app", "team": "shop"}, result.GetLabels())
	assert.Equal(t, map[string]string{"prometheus.io/scrape": "true"}, result.GetAnnotations())

	serviceType, _, err := unstructured.NestedString(result.Object, "spec", "type")
	require.NoError(t, err)
	assert.Equal(t, "NodePort", serviceType)

	selector, _, err := unstructured.NestedStringMap(result.Object, "spec", "selector")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"app": "app"}, selector)

	ports, _, err := unstructured.NestedSlice(result.Object, "spec", "ports")
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"name": "web", "port": int64(80), "targetPort": int64(8080)},
	}, ports)
}

const sidecarFragment = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: app
spec:
  template:
    spec:
      containers:
      - name: a
      - name: sidecar
        image: example/proxy:1.0
        resources:
          limits:
            cpu: 0.5
        x-custom: kept
`

func TestMerge_IsIdempotentAndDeterministic(t *testing.T) {
	t.Parallel()

	for _, fragmentManifest := range []string{namelessFragment, sidecarFragment} {
		for _, options := range []merge.Options{{}, {SidecarAlignment: true}} {
			merger := merge.NewMerger(notify.Discard(), options)
			fragment := decode(t, fragmentManifest)

			once, err := merger.Merge(decode(t, generatedDeployment), fragment)
			require.NoError(t, err)

			again, err := merger.Merge(decode(t, generatedDeployment), fragment)
			require.NoError(t, err)

			twice, err := merger.Merge(once.Resource, fragment)
			require.NoError(t, err)

			assert.Equal(t, marshal(t, once.Resource), marshal(t, again.Resource))
			assert.Equal(t, marshal(t, once.Resource), marshal(t, twice.Resource))
			assert.Equal(t, once.ApplicationContainer, twice.ApplicationContainer)
		}
	}
}

func TestMerge_KeepsFragmentContainerFields(t *testing.T) {
	t.Parallel()

	merger := merge.NewMerger(notify.Discard(), merge.Options{SidecarAlignment: true})

	result, err := merger.Merge(decode(t, generatedDeployment), decode(t, sidecarFragment))
	require.NoError(t, err)

	containers := containersOf(t, result.Resource, "spec", "template", "spec", "containers")
	require.Len(t, containers, 3)

	assert.Equal(t, "example/a:1.0", containers[0]["image"])

	sidecar := containers[1]
	assert.Equal(t, "sidecar", sidecar["name"])
	assert.Equal(t, "kept", sidecar["x-custom"])

	cpu, _, err := unstructured.NestedFieldNoCopy(sidecar, "resources", "limits", "cpu")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cpu, 0)

	assert.Equal(t, "b", containers[2]["name"])
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	t.Parallel()

	generated := decode(t, generatedDeployment)
	fragment := decode(t, namelessFragment)
	generatedBefore := marshal(t, generated)
	fragmentBefore := marshal(t, fragment)

	_, err := merge.MergeResources(generated, fragment, notify.Discard(), false)
	require.NoError(t, err)

	assert.Equal(t, generatedBefore, marshal(t, generated))
	assert.Equal(t, fragmentBefore, marshal(t, fragment))
}

func TestMerge_LocalCustomisationUpdatesGenerated(t *testing.T) {
	t.Parallel()

	generated := decode(t, generatedDeployment)

	result, err := merge.MergeResources(generated, decode(t, namelessFragment), notify.Discard(), true)
	require.NoError(t, err)

	assert.Same(t, generated, result)
	assert.Equal(t, "backend", generated.GetLabels()["tier"])
}

func TestMerge_Errors(t *testing.T) {
	t.Parallel()

	service := decode(t, "apiVersion: v1\nkind: Service\nmetadata:\n  name: app\n")
	deployment := decode(t, generatedDeployment)

	_, err := merge.MergeResources(nil, service, nil, false)
	require.ErrorIs(t, err, merge.ErrNilResource)

	_, err = merge.MergeResources(deployment, service, nil, false)
	require.ErrorIs(t, err, merge.ErrKindMismatch)
}

func TestMergeMaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		override map[string]string
		original map[string]string
		expected map[string]string
	}{
		{name: "both nil", expected: nil},
		{
			name:     "override wins",
			override: map[string]string{"a": "2"},
			original: map[string]string{"a": "1", "b": "1"},
			expected: map[string]string{"a": "2", "b": "1"},
		},
		{
			name:     "blank override deletes",
			override: map[string]string{"a": ""},
			original: map[string]string{"a": "1"},
			expected: nil,
		},
		{
			name:     "blank original dropped",
			original: map[string]string{"a": "", "b": "1"},
			expected: map[string]string{"b": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, merge.MergeMaps(tt.override, tt.original))
		})
	}
}
