package registryauth

import "errors"

var (
	// ErrDecryptPassword is returned when a settings password cannot be decrypted.
	ErrDecryptPassword = errors.New("failed to decrypt registry password")
	// ErrMissingCredentials marks an authentication failure for a registry no
	// credentials were configured for.
	ErrMissingCredentials = errors.New("no credentials configured for registry")
	// ErrInvalidAuth is returned when an encoded auth value is not "user:password".
	ErrInvalidAuth = errors.New("invalid encoded registry auth")
)
