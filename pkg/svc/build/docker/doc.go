// Package docker builds images through a Docker daemon and pushes them with
// the daemon's registry client. The buildpacks and spring strategies reuse its
// push implementation for images their tools leave in the daemon.
package docker
