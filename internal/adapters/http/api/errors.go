package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrMissingFile      = errors.New("Missing 'resume' file in form data")
	ErrMissingFilename  = errors.New("Missing uploaded filename")
)
