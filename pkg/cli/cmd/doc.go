// Package cmd provides the kubepack command line: build, push, resource,
// apply, undeploy and helm.
package cmd
