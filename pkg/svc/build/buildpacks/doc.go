// Package buildpacks builds images with the Cloud Native Buildpacks pack CLI.
package buildpacks
