package store

import (
	"context"
	"errors"

	"bookstore/internal/entity"
	"bookstore/internal/usecase"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RelationPG struct {
	db *pgxpool.Pool
}

func NewRelationPG(db *pgxpool.Pool) *RelationPG {
	return &RelationPG{db: db}
}

const relationColumns = `id, user_id, book_id, "like", in_bookmarks, rate, created_at, updated_at`

func scanRelation(row pgx.Row) (entity.UserBookRelation, error) {
	var rel entity.UserBookRelation
	err := row.Scan(
		&rel.ID, &rel.UserID, &rel.BookID, &rel.Like, &rel.InBookmarks, &rel.Rate,
		&rel.CreatedAt, &rel.UpdatedAt,
	)
	return rel, err
}

// Upsert is the get-or-create write path for the caller's relation.
// INSERT ... ON CONFLICT DO NOTHING returns a row only when the row was
// actually created; otherwise the existing row is patched in place with
// the provided fields only.
func (repo *RelationPG) Upsert(ctx context.Context, userID string, bookID int64, changes usecase.RelationChanges) (entity.UserBookRelation, bool, error) {
	const insertSQL = `
	INSERT INTO user_book_relations (user_id, book_id, "like", in_bookmarks, rate)
	VALUES ($1, $2, COALESCE($3, FALSE), COALESCE($4, FALSE), $5)
	ON CONFLICT (user_id, book_id) DO NOTHING
	RETURNING ` + relationColumns

	rel, err := scanRelation(repo.db.QueryRow(ctx, insertSQL, userID, bookID, changes.Like, changes.InBookmarks, changes.Rate))
	if err == nil {
		return rel, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key violation: no such book
			return entity.UserBookRelation{}, false, usecase.ErrNotFound
		}
		return entity.UserBookRelation{}, false, err
	}

	// Row already existed; patch only the fields the caller sent. An
	// explicit null rate clears the rating instead of keeping it.
	const updateSQL = `
	UPDATE user_book_relations
	SET "like"       = COALESCE($3, "like"),
	    in_bookmarks = COALESCE($4, in_bookmarks),
	    rate         = CASE WHEN $6 THEN NULL ELSE COALESCE($5, rate) END,
	    updated_at   = NOW()
	WHERE user_id = $1 AND book_id = $2
	RETURNING ` + relationColumns

	rel, err = scanRelation(repo.db.QueryRow(ctx, updateSQL, userID, bookID, changes.Like, changes.InBookmarks, changes.Rate, changes.ClearRate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.UserBookRelation{}, false, usecase.ErrNotFound
		}
		return entity.UserBookRelation{}, false, err
	}
	return rel, false, nil
}

// RecomputeRating refreshes books.rating from the present rate values.
// The book row is locked for the read-aggregate-write sequence so two
// concurrent relation creations for the same book serialize here.
func (repo *RelationPG) RecomputeRating(ctx context.Context, bookID int64) error {
	tx, err := repo.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// book vanished, nothing to recompute
			return nil
		}
		return err
	}

	rows, err := tx.Query(ctx, `SELECT rate FROM user_book_relations WHERE book_id = $1 AND rate IS NOT NULL`, bookID)
	if err != nil {
		return err
	}
	var rates []int
	for rows.Next() {
		var rate int
		if err := rows.Scan(&rate); err != nil {
			rows.Close()
			return err
		}
		rates = append(rates, rate)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if avg, ok := usecase.AverageRating(rates); ok {
		_, err = tx.Exec(ctx, `UPDATE books SET rating = $2, updated_at = NOW() WHERE id = $1`, bookID, avg)
	} else {
		_, err = tx.Exec(ctx, `UPDATE books SET rating = NULL, updated_at = NOW() WHERE id = $1`, bookID)
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
