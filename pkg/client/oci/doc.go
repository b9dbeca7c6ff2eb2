// Package oci wraps go-containerregistry for daemonless image work: parsing
// references, packaging directories as image layers, and pulling, pushing and
// probing images in OCI registries.
package oci
