package spring

import "errors"

var (
	// ErrUnknownBuildTool is returned when neither a Maven nor a Gradle build is found.
	ErrUnknownBuildTool = errors.New("could not determine the project build tool")
	// ErrNoPusher is returned when the strategy has no push implementation.
	ErrNoPusher = errors.New("spring strategy has no image pusher")
)
