package v1alpha1

import "errors"

// ErrInvalidStrategy is returned when an unknown build strategy is specified.
var ErrInvalidStrategy = errors.New("invalid build strategy")

// ErrInvalidRecreateMode is returned when an unknown recreate mode is specified.
var ErrInvalidRecreateMode = errors.New("invalid recreate mode")

// ErrInvalidPullPolicy is returned when an unknown image pull policy is specified.
var ErrInvalidPullPolicy = errors.New("invalid image pull policy")

// ErrInvalidBuildTool is returned when an unknown project build tool is specified.
var ErrInvalidBuildTool = errors.New("invalid build tool")

// ErrImageNameRequired is returned when an image configuration has no name.
var ErrImageNameRequired = errors.New("image name is required")

// ErrDockerfileAndAssembly is returned when a build configuration sets both a
// Dockerfile and assembly layers.
var ErrDockerfileAndAssembly = errors.New("dockerFile and assembly are mutually exclusive")

// ErrInvalidImageName is returned when an image reference cannot be parsed.
var ErrInvalidImageName = errors.New("invalid image name")
