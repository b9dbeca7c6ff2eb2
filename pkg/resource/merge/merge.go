package merge

import (
	"fmt"
	"slices"

	"github.com/devantler-tech/kubepack/pkg/notify"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// podTemplatePaths lists where each pod controller keeps its pod template.
//
//nolint:gochecknoglobals // static kind table
var podTemplatePaths = map[string][]string{
	"Deployment":            {"spec", "template"},
	"StatefulSet":           {"spec", "template"},
	"DaemonSet":             {"spec", "template"},
	"ReplicaSet":            {"spec", "template"},
	"ReplicationController": {"spec", "template"},
	"Job":                   {"spec", "template"},
	"DeploymentConfig":      {"spec", "template"},
	"CronJob":               {"spec", "jobTemplate", "spec", "template"},
}

// PodTemplatePath returns the path of the pod template for kind, or nil when
// kind is not a pod controller.
func PodTemplatePath(kind string) []string {
	return podTemplatePaths[kind]
}

// Options tune container alignment.
type Options struct {
	// SidecarAlignment aligns containers by name instead of position.
	SidecarAlignment bool
	// DefaultContainerName names a nameless fragment container when the
	// generated resource has no containers at all.
	DefaultContainerName string
	// LocalCustomisation writes the merge result into the generated resource
	// instead of a copy.
	LocalCustomisation bool
}

// Result is the outcome of a single merge.
type Result struct {
	Resource *unstructured.Unstructured
	// ApplicationContainer is the name of the main container of a pod
	// controller, empty for other kinds.
	ApplicationContainer string
}

// Merger merges fragments onto generated resources.
type Merger struct {
	logger  notify.Logger
	options Options
}

// NewMerger returns a Merger logging to logger.
func NewMerger(logger notify.Logger, options Options) *Merger {
	if logger == nil {
		logger = notify.Discard()
	}

	return &Merger{logger: logger, options: options}
}

// MergeResources merges fragment onto generated with position based container
// alignment.
func MergeResources(
	generated, fragment *unstructured.Unstructured,
	logger notify.Logger,
	localCustomisation bool,
) (*unstructured.Unstructured, error) {
	result, err := NewMerger(logger, Options{LocalCustomisation: localCustomisation}).Merge(generated, fragment)
	if err != nil {
		return nil, err
	}

	return result.Resource, nil
}

// Merge merges fragment onto generated. Neither input is modified unless
// LocalCustomisation is set, in which case generated receives the result.
func (m *Merger) Merge(generated, fragment *unstructured.Unstructured) (Result, error) {
	if generated == nil || fragment == nil {
		return Result{}, ErrNilResource
	}

	if generated.GetKind() != fragment.GetKind() {
		return Result{}, fmt.Errorf(
			"%w: %s and %s", ErrKindMismatch, generated.GetKind(), fragment.GetKind(),
		)
	}

	kind := generated.GetKind()
	m.logger.Debugf("merging fragment into %s %s", kind, generated.GetName())

	var (
		merged    map[string]any
		container string
		err       error
	)

	switch {
	case kind == "ConfigMap":
		merged = mergeConfigMap(generated.Object, fragment.Object)
	case podTemplatePaths[kind] != nil:
		merged, container, err = m.mergePodController(generated.Object, fragment.Object, podTemplatePaths[kind])
	default:
		merged = mergeGeneric(generated.Object, fragment.Object)
	}

	if err != nil {
		return Result{}, fmt.Errorf("merge %s %s: %w", kind, generated.GetName(), err)
	}

	if m.options.LocalCustomisation {
		generated.Object = merged

		return Result{Resource: generated, ApplicationContainer: container}, nil
	}

	return Result{Resource: &unstructured.Unstructured{Object: merged}, ApplicationContainer: container}, nil
}

// mergeMetadata fills the metadata of target from defaults and applies the
// blank removal convention to labels and annotations.
func mergeMetadata(target, defaults map[string]any) {
	targetMetadata := mapAt(target, "metadata")
	defaultMetadata := mapAt(defaults, "metadata")

	switch {
	case targetMetadata == nil && defaultMetadata == nil:
		return
	case targetMetadata == nil:
		targetMetadata = map[string]any{}
		target["metadata"] = targetMetadata
	}

	if defaultMetadata != nil {
		fill(targetMetadata, defaultMetadata)
	}

	removeBlank(target, "metadata", "labels")
	removeBlank(target, "metadata", "annotations")
}

// mergeGeneric keeps the fragment as written and fills every object field it
// lacks from generated. Lists are never merged.
func mergeGeneric(generated, fragment map[string]any) map[string]any {
	result := runtimeCopy(fragment)

	fill(result, generated)
	mergeMetadata(result, generated)

	return result
}

func mergeConfigMap(generated, fragment map[string]any) map[string]any {
	result := mergeGeneric(generated, fragment)

	for _, field := range []string{"data", "binaryData"} {
		fragmentData := mapAt(fragment, field)
		if fragmentData == nil {
			continue
		}

		data := runtimeCopy(fragmentData)
		if generatedData := mapAt(generated, field); generatedData != nil {
			fill(data, generatedData)
		}

		result[field] = data
		removeBlank(result, field)
	}

	return result
}

func (m *Merger) mergePodController(
	generated, fragment map[string]any,
	templatePath []string,
) (map[string]any, string, error) {
	result := runtimeCopy(fragment)

	containersPath := slices.Concat(templatePath, []string{"spec", "containers"})
	generatedContainers := sliceAt(generated, containersPath...)
	fragmentContainers := sliceAt(fragment, containersPath...)

	fill(result, generated)
	mergeMetadata(result, generated)

	template := mapAt(result, templatePath...)
	if template == nil {
		return result, "", nil
	}

	removeBlank(template, "metadata", "labels")
	removeBlank(template, "metadata", "annotations")

	containers, name, err := m.mergeContainerLists(fragmentContainers, generatedContainers)
	if err != nil {
		return nil, "", err
	}

	if containers != nil {
		podSpec := mapAt(template, "spec")
		if podSpec == nil {
			podSpec = map[string]any{}
			template["spec"] = podSpec
		}

		podSpec["containers"] = containers
	}

	return result, name, nil
}
