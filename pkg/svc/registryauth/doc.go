// Package registryauth resolves the registry and the credentials used to pull
// base images and push built images.
//
// The registry of an image is taken from, in order: the registry embedded in
// the image name, the registry set on the image configuration, the registry of
// the registry configuration. Credentials come from the matching server in the
// registry configuration settings, then (unless extended auth is skipped) from
// the explicit auth configuration, the environment and the Docker keychain
// (config.json and credential helpers).
package registryauth
