// Package undeploy deletes the resources of a generated manifest from a cluster.
//
// Resources are deleted with background propagation in a fixed order:
// namespaced resources first, then cluster scoped ones, then custom resources.
// Custom resources are addressed through the CustomResourceDefinitions the
// cluster serves, looked up once per Undeploy call. A failed deletion does not
// stop the pass; every failure is reported together at the end.
//
// Resources that are already gone count as undeployed, so running Undeploy
// twice is safe and the second run issues no deletions.
package undeploy
