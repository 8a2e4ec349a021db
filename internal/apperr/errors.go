// Package apperr defines sentinel errors shared across Driftpad layers.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrAlreadyExists  = errors.New("already exists")
	ErrPlaybackActive = errors.New("playback already active")
)
