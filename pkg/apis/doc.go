// Package apis holds the versioned kubepack configuration types.
//
//   - build: project, image, registry and build service configuration
package apis
