package board

import "errors"

// Operation failures, mapped to HTTP statuses at the handler boundary.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("meme not found")
	ErrForbidden          = errors.New("admin access required")
)
