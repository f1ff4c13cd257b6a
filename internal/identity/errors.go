package identity

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password
	// so that login failures never reveal which accounts exist.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrMissingToken       = errors.New("identity: missing token")
	ErrInvalidToken       = errors.New("identity: invalid token")
	ErrForbidden          = errors.New("identity: forbidden")
	ErrNotFound           = errors.New("identity: not found")
	ErrAlreadyExists      = errors.New("identity: already exists")
	ErrInvalidInput       = errors.New("identity: invalid input")
)
