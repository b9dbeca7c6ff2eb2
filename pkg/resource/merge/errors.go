package merge

import "errors"

var (
	// ErrNilResource is returned when either side of a merge is nil.
	ErrNilResource = errors.New("cannot merge a nil resource")
	// ErrKindMismatch is returned when the generated and fragment kinds differ.
	ErrKindMismatch = errors.New("cannot merge resources of different kinds")
	// ErrInvalidContainer is returned when a container entry is not an object.
	ErrInvalidContainer = errors.New("container is not an object")
)
