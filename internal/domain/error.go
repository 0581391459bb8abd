package domain

import "errors"

var (
	// Input errors, raised before any network call.
	ErrInvalidImage = errors.New("invalid image")
	ErrEmptyImage   = errors.New("empty image")
	ErrNotImage     = errors.New("attachment is not an image")
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// Remote errors.
	ErrTransport   = errors.New("transport error")
	ErrProvider    = errors.New("provider rejected upload")
	ErrRateLimited = errors.New("rate limited by chat transport")
)
