// Package loader reads and writes Kubernetes manifests as unstructured resources.
//
// Manifests may hold several YAML documents, JSON objects, or List kinds whose
// items are flattened into the result. Output is written as a single v1/List
// document with sorted keys so repeated runs produce identical files.
package loader
