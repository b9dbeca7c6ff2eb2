// Package apply server-side applies the resources of a generated manifest.
//
// Namespaces and CustomResourceDefinitions are applied before every other
// resource so that the objects depending on them can be placed.
package apply
