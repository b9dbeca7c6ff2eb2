// Package svc holds the kubepack services behind the CLI commands.
//
// Subpackages:
//   - build: build strategy selection and the strategy implementations
//   - registryauth: registry credential resolution
//   - resource: default resource generation and fragment merging
//   - apply: server-side apply of the generated manifest
//   - undeploy: deletion of previously applied resources
//   - helm: Helm chart generation and OCI push
//   - summary: the end of run summary
package svc
