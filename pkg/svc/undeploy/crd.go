package undeploy

import (
	"context"
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// CRDContext addresses the instances of one custom resource kind.
type CRDContext struct {
	Group   string
	Version string
	Kind    string
	Plural  string
	Scope   apiextensionsv1.ResourceScope
}

// Key returns the lookup key group/version#Kind.
func (c CRDContext) Key() string {
	return CRDKey(schema.GroupVersionKind{Group: c.Group, Version: c.Version, Kind: c.Kind})
}

// Resource returns the resource the dynamic client deletes instances through.
func (c CRDContext) Resource() schema.GroupVersionResource {
	return schema.GroupVersionResource{Group: c.Group, Version: c.Version, Resource: c.Plural}
}

// Namespaced reports whether instances live in a namespace.
func (c CRDContext) Namespaced() bool {
	return c.Scope == apiextensionsv1.NamespaceScoped
}

// CRDKey returns the lookup key of gvk.
func CRDKey(gvk schema.GroupVersionKind) string {
	return gvk.Group + "/" + gvk.Version + "#" + gvk.Kind
}

// crdIndex is built on first use and reused for the rest of one undeploy call.
type crdIndex struct {
	client   apiextensionsclient.Interface
	contexts map[string]CRDContext
}

func (i *crdIndex) lookup(ctx context.Context, gvk schema.GroupVersionKind) (CRDContext, error) {
	if i.contexts == nil {
		contexts, err := listCRDContexts(ctx, i.client)
		if err != nil {
			return CRDContext{}, err
		}

		i.contexts = contexts
	}

	crdContext, ok := i.contexts[CRDKey(gvk)]
	if !ok {
		return CRDContext{}, fmt.Errorf("%w for %s", ErrCRDNotFound, CRDKey(gvk))
	}

	return crdContext, nil
}

func listCRDContexts(ctx context.Context, client apiextensionsclient.Interface) (map[string]CRDContext, error) {
	if client == nil {
		return nil, ErrNoClients
	}

	list, err := client.ApiextensionsV1().CustomResourceDefinitions().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list custom resource definitions: %w", err)
	}

	contexts := make(map[string]CRDContext)

	for _, crd := range list.Items {
		for _, version := range crd.Spec.Versions {
			if !version.Served {
				continue
			}

			crdContext := CRDContext{
				Group:   crd.Spec.Group,
				Version: version.Name,
				Kind:    crd.Spec.Names.Kind,
				Plural:  crd.Spec.Names.Plural,
				Scope:   crd.Spec.Scope,
			}
			contexts[crdContext.Key()] = crdContext
		}
	}

	return contexts, nil
}
