// Package configmanager loads kubepack.yaml into a v1alpha1.Project.
//
// Values are layered as defaults < config file < environment (KUBEPACK_*) < flags.
package configmanager
