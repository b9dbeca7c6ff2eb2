// Package helm turns a generated manifest into a Helm chart.
//
// The chart directory holds Chart.yaml, values.yaml and one template per
// resource. It is validated with the Helm chart loader, packaged into a
// reproducible <name>-<version>.tgz and optionally pushed to an OCI registry
// with the Helm media types.
package helm
