package repository

import "github.com/okian/collegeapi/internal/domain/failure"

// Sentinel errors for saved-college storage.
var (
	ErrNotFound    = failure.New("repository", failure.ErrNotFound, "College not found")
	ErrMissingUser = failure.New("repository", failure.ErrAuthentication, "missing user identity")
)
