// Package cli holds the kubepack command line. Commands live in cli/cmd and
// error presentation in cli/ui/errorhandler.
package cli
