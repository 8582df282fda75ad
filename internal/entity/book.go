package entity

import "time"

type Book struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Price      string    `json:"price"` // numeric(7,2), rendered as "25.00"
	AuthorName string    `json:"author_name"`
	OwnerID    *string   `json:"owner_id,omitempty"`
	Rating     *string   `json:"rating,omitempty"` // numeric(3,2), unset until someone rates
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Reader is the reduced user view exposed in book listings.
type Reader struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AnnotatedBook is the listing projection: a book plus the per-book
// aggregates computed in the listing query itself.
type AnnotatedBook struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Price              string   `json:"price"`
	AuthorName         string   `json:"author_name"`
	AnnotatedLikes     int      `json:"annotated_likes"`
	AnnotatedBookmarks int      `json:"annotated_bookmarks"`
	OwnerName          string   `json:"owner_name"`
	Readers            []Reader `json:"readers"`
}
