// Package sentinel holds the errors shared by stores and asset backends.
// Services translate them into domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means no record or photo exists under the requested key.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput rejects keys that can never resolve, such as photo
	// references escaping the upload directory.
	ErrInvalidInput = errors.New("invalid input")
)
