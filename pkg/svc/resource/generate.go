package resource

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	v1alpha1 "github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/devantler-tech/kubepack/pkg/naming"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

const (
	// NameLabel identifies the application.
	NameLabel = "app.kubernetes.io/name"
	// ManagedByLabel marks generated resources.
	ManagedByLabel = "app.kubernetes.io/managed-by"
	// ManagedBy is the ManagedByLabel value.
	ManagedBy = "kubepack"
)

// Generate returns the default Deployment for the project images and a
// Service when any image exposes ports. No images means no defaults.
func Generate(project v1alpha1.Project) ([]*unstructured.Unstructured, error) {
	if len(project.Images) == 0 {
		return nil, nil
	}

	name := AppName(project)
	if name == "" {
		return nil, ErrNoName
	}

	containers := make([]corev1.Container, 0, len(project.Images))

	var servicePorts []corev1.ServicePort

	for index := range project.Images {
		container, err := newContainer(&project.Images[index])
		if err != nil {
			return nil, err
		}

		for _, port := range container.Ports {
			servicePorts = append(servicePorts, corev1.ServicePort{
				Name:       port.Name,
				Protocol:   port.Protocol,
				Port:       port.ContainerPort,
				TargetPort: intstr.FromInt32(port.ContainerPort),
			})
		}

		containers = append(containers, container)
	}

	meta := metav1.ObjectMeta{
		Name:      name,
		Namespace: project.Resource.Namespace,
		Labels:    map[string]string{NameLabel: name, ManagedByLabel: ManagedBy},
	}
	selector := map[string]string{NameLabel: name}

	deployment := &appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: meta,
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: selector},
				Spec:       corev1.PodSpec{Containers: containers},
			},
		},
	}

	objects := []runtime.Object{deployment}

	if len(servicePorts) > 0 {
		objects = append(objects, &corev1.Service{
			TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
			ObjectMeta: meta,
			Spec: corev1.ServiceSpec{
				Selector: selector,
				Ports:    servicePorts,
			},
		})
	}

	resources := make([]*unstructured.Unstructured, 0, len(objects))

	for _, object := range objects {
		resource, err := toUnstructured(object)
		if err != nil {
			return nil, err
		}

		resources = append(resources, resource)
	}

	return resources, nil
}

// AppName is the artifact id, or the first image's short name.
func AppName(project v1alpha1.Project) string {
	name := project.Java.ArtifactID
	if name == "" && len(project.Images) > 0 {
		name = project.Images[0].ShortName()
	}

	return naming.DNSLabel(name)
}

func newContainer(image *v1alpha1.ImageConfiguration) (corev1.Container, error) {
	container := corev1.Container{
		Name:            naming.DNSLabel(image.ShortName()),
		Image:           image.Name,
		ImagePullPolicy: corev1.PullIfNotPresent,
	}

	if image.Build == nil {
		return container, nil
	}

	for _, spec := range image.Build.Ports {
		port, err := parsePort(spec)
		if err != nil {
			return corev1.Container{}, fmt.Errorf("image %s: %w", image.Description(), err)
		}

		container.Ports = append(container.Ports, port)
	}

	keys := make([]string, 0, len(image.Build.Env))
	for key := range image.Build.Env {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		container.Env = append(container.Env, corev1.EnvVar{Name: key, Value: image.Build.Env[key]})
	}

	return container, nil
}

// parsePort reads "port[/protocol]".
func parsePort(spec string) (corev1.ContainerPort, error) {
	number, protocol, _ := strings.Cut(strings.TrimSpace(spec), "/")

	value, err := strconv.ParseInt(number, 10, 32)
	if err != nil || value < 1 || value > 65535 {
		return corev1.ContainerPort{}, fmt.Errorf("%w: %q", ErrInvalidPort, spec)
	}

	proto := corev1.ProtocolTCP
	if protocol != "" {
		proto = corev1.Protocol(strings.ToUpper(protocol))
		if proto != corev1.ProtocolTCP && proto != corev1.ProtocolUDP && proto != corev1.ProtocolSCTP {
			return corev1.ContainerPort{}, fmt.Errorf("%w: %q", ErrInvalidPort, spec)
		}
	}

	return corev1.ContainerPort{
		Name:          fmt.Sprintf("%s-%d", strings.ToLower(string(proto)), value),
		ContainerPort: int32(value),
		Protocol:      proto,
	}, nil
}

func toUnstructured(object runtime.Object) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(object)
	if err != nil {
		return nil, fmt.Errorf("convert %T: %w", object, err)
	}

	prune(content)

	return &unstructured.Unstructured{Object: content}, nil
}

// prune drops nil values and empty maps left by zero-valued structs.
func prune(values map[string]any) {
	for key, value := range values {
		switch typed := value.(type) {
		case nil:
			delete(values, key)
		case map[string]any:
			prune(typed)

			if len(typed) == 0 {
				delete(values, key)
			}
		case []any:
			for _, item := range typed {
				if nested, ok := item.(map[string]any); ok {
					prune(nested)
				}
			}
		}
	}
}

