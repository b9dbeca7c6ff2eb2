package k8s

import (
	"fmt"

	"github.com/devantler-tech/kubepack/pkg/fsutil"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// DefaultNamespace is used when the kubeconfig context does not set one.
const DefaultNamespace = "default"

// ClientConfig returns a deferred kubeconfig loader.
//
// An empty kubeconfig path falls back to the standard loading rules
// (KUBECONFIG env var, then ~/.kube/config). An empty context selects the
// kubeconfig's current context. A leading ~/ in kubeconfig is expanded to the
// user's home directory.
func ClientConfig(kubeconfig, context string) clientcmd.ClientConfig {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		expanded, err := fsutil.ExpandHomePath(kubeconfig)
		if err != nil {
			expanded = kubeconfig
		}

		loadingRules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: expanded}
	}

	overrides := &clientcmd.ConfigOverrides{}
	if context != "" {
		overrides.CurrentContext = context
	}

	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)
}

// BuildRESTConfig builds a Kubernetes REST config from a kubeconfig path and optional context.
func BuildRESTConfig(kubeconfig, context string) (*rest.Config, error) {
	restConfig, err := ClientConfig(kubeconfig, context).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	return restConfig, nil
}

// CurrentNamespace returns the namespace of the selected kubeconfig context,
// or DefaultNamespace when the context does not declare one.
func CurrentNamespace(kubeconfig, context string) (string, error) {
	namespace, _, err := ClientConfig(kubeconfig, context).Namespace()
	if err != nil {
		return "", fmt.Errorf("failed to resolve namespace: %w", err)
	}

	if namespace == "" {
		return DefaultNamespace, nil
	}

	return namespace, nil
}
