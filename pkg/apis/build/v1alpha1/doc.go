// Package v1alpha1 contains the kubepack build and deploy data model.
//
// The types in this package are plain values decoded from kubepack.yaml (or built by
// callers) and shared by the resource merger, the build strategies and the
// undeploy engine:
//   - [ImageConfiguration] and [BuildConfiguration] describe one image to build
//   - [RegistryConfig] holds registry host and per-server credentials
//   - [BuildServiceConfig] selects the build [Strategy] and its options
//   - [Project] is the root of the configuration file
package v1alpha1
