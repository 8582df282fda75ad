package usecase

import (
	"bookstore/internal/entity"
	"context"
)

// RelationChanges is a partial patch; nil fields are left untouched.
// ClearRate marks an explicit null for rate, which removes the rating
// rather than leaving it alone.
type RelationChanges struct {
	Like        *bool
	InBookmarks *bool
	Rate        *int
	ClearRate   bool
}

type RelationRepository interface {
	// Upsert applies changes to the caller's relation for the book,
	// creating the row on first touch. The bool reports whether a new
	// row was created. Unknown book yields ErrNotFound.
	Upsert(ctx context.Context, userID string, bookID int64, changes RelationChanges) (entity.UserBookRelation, bool, error)

	// RecomputeRating refreshes the book's aggregate rating from its
	// relations. A vanished book is a no-op.
	RecomputeRating(ctx context.Context, bookID int64) error
}
