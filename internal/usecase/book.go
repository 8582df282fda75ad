package usecase

import (
	"bookstore/internal/entity"
	"context"
)

// ListParams carries the query shaping for the aggregated book listing.
// Price and Name are exact-match filters, Search is a case-insensitive
// substring match on name or author_name, OrderBy is "price" or
// "author_name" (already validated by the handler).
type ListParams struct {
	Price   string
	Name    string
	Search  string
	OrderBy string
	Desc    bool
}

type BookRepository interface {
	// List returns every book in scope with its aggregates, in a single
	// query round trip.
	List(ctx context.Context, p ListParams) ([]entity.AnnotatedBook, error)
	// GetByID returns one book in the same annotated projection.
	GetByID(ctx context.Context, id int64) (entity.AnnotatedBook, error)
	// FindByID returns the raw row, used for ownership checks before
	// mutations.
	FindByID(ctx context.Context, id int64) (entity.Book, error)
	Create(ctx context.Context, b *entity.Book) error
	Update(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id int64) error
}
