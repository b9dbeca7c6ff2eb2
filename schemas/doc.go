// Package schemas holds the generator for the kubepack.yaml JSON schema.
//
// Run: go generate ./schemas/...
package schemas

//go:generate go run gen_schema.go kubepack-config.schema.json
