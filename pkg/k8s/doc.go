// Package k8s provides Kubernetes client configuration shared by the cluster facing services.
//
// Key features:
//   - REST config building from kubeconfig files (BuildRESTConfig)
//   - Namespace resolution from the active kubeconfig context (CurrentNamespace)
//   - A bundle of dynamic, typed and apiextensions clients (NewClients)
//   - GroupVersionKind to resource mapping for unstructured objects (ResourceInterface)
package k8s
