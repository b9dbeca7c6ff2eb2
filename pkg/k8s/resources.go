package k8s

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
)

// ResourceMapping resolves the resource and scope served for a kind.
func ResourceMapping(
	mapper meta.RESTMapper,
	gvk schema.GroupVersionKind,
) (schema.GroupVersionResource, bool, error) {
	mapping, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return schema.GroupVersionResource{}, false, fmt.Errorf("%w %s: %w", ErrNoResourceMapping, gvk, err)
	}

	return mapping.Resource, mapping.Scope.Name() == meta.RESTScopeNameNamespace, nil
}

// ResourceInterface returns the dynamic client endpoint for obj.
//
// Namespaced objects without a namespace are addressed in defaultNamespace.
func ResourceInterface(
	client dynamic.Interface,
	mapper meta.RESTMapper,
	obj *unstructured.Unstructured,
	defaultNamespace string,
) (dynamic.ResourceInterface, error) {
	gvr, namespaced, err := ResourceMapping(mapper, obj.GroupVersionKind())
	if err != nil {
		return nil, err
	}

	if !namespaced {
		return client.Resource(gvr), nil
	}

	namespace := obj.GetNamespace()
	if namespace == "" {
		namespace = defaultNamespace
	}

	return client.Resource(gvr).Namespace(namespace), nil
}
