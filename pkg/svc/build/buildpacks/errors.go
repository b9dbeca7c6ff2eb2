package buildpacks

import "errors"

// ErrNoPusher is returned when the strategy has no push implementation.
var ErrNoPusher = errors.New("buildpacks strategy has no image pusher")
