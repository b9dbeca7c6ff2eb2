// Package resource generates the default manifest of a project and merges
// user fragments onto it.
package resource
