package k8s

import (
	"fmt"

	apiextensionsclient "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
)

// Clients groups the API clients used against a single cluster.
type Clients struct {
	Config        *rest.Config
	Dynamic       dynamic.Interface
	Kubernetes    kubernetes.Interface
	APIExtensions apiextensionsclient.Interface
	Mapper        meta.RESTMapper
	// Namespace is the namespace of the kubeconfig context.
	Namespace string
}

// NewClients builds every client from the given kubeconfig and context.
func NewClients(kubeconfig, context string) (*Clients, error) {
	restConfig, err := BuildRESTConfig(kubeconfig, context)
	if err != nil {
		return nil, fmt.Errorf("failed to build rest config: %w", err)
	}

	namespace, err := CurrentNamespace(kubeconfig, context)
	if err != nil {
		return nil, err
	}

	return NewClientsForConfig(restConfig, namespace)
}

// NewClientsForConfig builds every client from an existing REST config.
func NewClientsForConfig(restConfig *rest.Config, namespace string) (*Clients, error) {
	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	extensions, err := apiextensionsclient.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions client: %w", err)
	}

	cachedDiscovery := memory.NewMemCacheClient(clientset.Discovery())

	return &Clients{
		Config:        restConfig,
		Dynamic:       dynamicClient,
		Kubernetes:    clientset,
		APIExtensions: extensions,
		Mapper:        restmapper.NewDeferredDiscoveryRESTMapper(cachedDiscovery),
		Namespace:     namespace,
	}, nil
}
