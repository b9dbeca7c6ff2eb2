package s2i

import (
	"maps"
	"slices"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const (
	// ManagedByLabel marks objects created by kubepack.
	ManagedByLabel = "app.kubernetes.io/managed-by"
	managedBy      = "kubepack"

	kindDockerImage    = "DockerImage"
	kindImageStreamTag = "ImageStreamTag"
)

var (
	// ImageStreamResource is the OpenShift ImageStream resource.
	ImageStreamResource = schema.GroupVersionResource{
		Group: "image.openshift.io", Version: "v1", Resource: "imagestreams",
	}
	// BuildConfigResource is the OpenShift BuildConfig resource.
	BuildConfigResource = schema.GroupVersionResource{
		Group: "build.openshift.io", Version: "v1", Resource: "buildconfigs",
	}
	// BuildResource is the OpenShift Build resource.
	BuildResource = schema.GroupVersionResource{
		Group: "build.openshift.io", Version: "v1", Resource: "builds",
	}
)

func newImageStream(name, namespace string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "image.openshift.io/v1",
		"kind":       "ImageStream",
		"metadata": map[string]any{
			"name":      name,
			"namespace": namespace,
			"labels":    map[string]any{ManagedByLabel: managedBy},
		},
		"spec": map[string]any{
			"lookupPolicy": map[string]any{"local": false},
		},
	}}
}

type buildConfigParams struct {
	name       string
	namespace  string
	outputTag  string
	dockerfile string
	config     *v1alpha1.BuildConfiguration
	forcePull  bool
}

func newBuildConfig(params buildConfigParams) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "build.openshift.io/v1",
		"kind":       "BuildConfig",
		"metadata": map[string]any{
			"name":      params.name,
			"namespace": params.namespace,
			"labels":    map[string]any{ManagedByLabel: managedBy},
		},
		"spec": buildConfigSpec(params),
	}}
}

func buildConfigSpec(params buildConfigParams) map[string]any {
	return map[string]any{
		"runPolicy": "Serial",
		"source": map[string]any{
			"type":   "Binary",
			"binary": map[string]any{},
		},
		"strategy": buildStrategy(params),
		"output": map[string]any{
			"to": map[string]any{"kind": kindImageStreamTag, "name": params.outputTag},
		},
	}
}

func buildStrategy(params buildConfigParams) map[string]any {
	strategy := map[string]any{"forcePull": params.forcePull}

	if env := envList(params.config.Env); len(env) > 0 {
		strategy["env"] = env
	}

	if params.config.From != "" {
		strategy["from"] = fromReference(params.config)
	}

	if params.dockerfile != "" {
		strategy["dockerfilePath"] = params.dockerfile

		if args := envList(params.config.Args); len(args) > 0 {
			strategy["buildArgs"] = args
		}

		return map[string]any{"type": "Docker", "dockerStrategy": strategy}
	}

	return map[string]any{"type": "Source", "sourceStrategy": strategy}
}

func fromReference(config *v1alpha1.BuildConfiguration) map[string]any {
	kind := config.FromKind
	if kind == "" {
		kind = kindDockerImage
	}

	return map[string]any{"kind": kind, "name": config.From}
}

func envList(values map[string]string) []any {
	env := make([]any, 0, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		env = append(env, map[string]any{"name": key, "value": values[key]})
	}

	return env
}
