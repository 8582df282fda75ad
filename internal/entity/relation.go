package entity

import "time"

// UserBookRelation captures one user's like/bookmark/rating state for one
// book. At most one row exists per (user, book) pair.
type UserBookRelation struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	BookID      int64     `json:"book"`
	Like        bool      `json:"like"`
	InBookmarks bool      `json:"in_bookmarks"`
	Rate        *int      `json:"rate"` // 1..5, nil means no rating given
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
