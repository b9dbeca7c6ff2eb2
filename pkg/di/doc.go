// Package di wires kubepack's runtime dependencies with samber/do.
package di
