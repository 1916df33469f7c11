// Package repository stores each user's saved colleges.
package repository

import (
	"context"

	"github.com/okian/collegeapi/internal/domain/college"
)

// Store holds one ordered collection of saved colleges per user.
//
// Insert must check for a duplicate and append as one atomic step per user:
// two concurrent inserts of the same college for the same user store exactly
// one record. Collections of different users never interact.
type Store interface {
	// Insert appends rec unless the user already saved a college with the same
	// name and state. It returns the stored record and whether it was created;
	// on a duplicate the existing record is returned with created false.
	Insert(ctx context.Context, userID string, rec college.SavedCollege) (college.SavedCollege, bool, error)

	// List returns the user's records in insertion order. A user with no saves
	// gets an empty slice.
	List(ctx context.Context, userID string) ([]college.SavedCollege, error)

	// Delete removes the record with id. Returns ErrNotFound when the user has
	// no such record.
	Delete(ctx context.Context, userID, id string) error
}
