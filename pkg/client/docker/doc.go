// Package docker talks to a Docker compatible daemon to build, tag, pull and push images.
package docker
