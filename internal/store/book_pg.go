package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"bookstore/internal/entity"
	"bookstore/internal/usecase"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookPG struct {
	db *pgxpool.Pool
}

func NewBookPG(db *pgxpool.Pool) *BookPG {
	return &BookPG{db: db}
}

// annotatedDataset is the shared base of List and GetByID: one SELECT that
// joins the owner, the relations and the reader users, and computes the
// like/bookmark counts with conditional aggregates. Everything the listing
// needs comes back in a single round trip.
func annotatedDataset() *goqu.SelectDataset {
	return goqu.Dialect("postgres").
		From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("users").As("o"), goqu.On(goqu.L(`o.id = b.owner_id`))).
		LeftJoin(goqu.T("user_book_relations").As("r"), goqu.On(goqu.L(`r.book_id = b.id`))).
		LeftJoin(goqu.T("users").As("ru"), goqu.On(goqu.L(`ru.id = r.user_id`))).
		Select(
			goqu.I("b.id"),
			goqu.I("b.name"),
			goqu.L(`b.price::text`).As("price"),
			goqu.I("b.author_name"),
			goqu.L(`COUNT(*) FILTER (WHERE r."like")`).As("annotated_likes"),
			goqu.L(`COUNT(*) FILTER (WHERE r.in_bookmarks)`).As("annotated_bookmarks"),
			goqu.L(`COALESCE(o.username, '')`).As("owner_name"),
			goqu.L(`COALESCE(json_agg(json_build_object('first_name', ru.first_name, 'last_name', ru.last_name) ORDER BY r.id) FILTER (WHERE ru.id IS NOT NULL), '[]')`).As("readers"),
		).
		GroupBy(goqu.I("b.id"), goqu.I("o.username"))
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search terms.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func buildListQuery(p usecase.ListParams) (string, []interface{}, error) {
	ds := annotatedDataset()

	if p.Price != "" {
		ds = ds.Where(goqu.L(`b.price = ?::numeric`, p.Price))
	}
	if p.Name != "" {
		ds = ds.Where(goqu.L(`b.name = ?`, p.Name))
	}
	if p.Search != "" {
		pattern := "%" + escapeLike(p.Search) + "%"
		ds = ds.Where(goqu.Or(
			goqu.L(`b.name ILIKE ?`, pattern),
			goqu.L(`b.author_name ILIKE ?`, pattern),
		))
	}

	switch p.OrderBy {
	case "price":
		if p.Desc {
			ds = ds.Order(goqu.I("b.price").Desc(), goqu.I("b.id").Asc())
		} else {
			ds = ds.Order(goqu.I("b.price").Asc(), goqu.I("b.id").Asc())
		}
	case "author_name":
		if p.Desc {
			ds = ds.Order(goqu.I("b.author_name").Desc(), goqu.I("b.id").Asc())
		} else {
			ds = ds.Order(goqu.I("b.author_name").Asc(), goqu.I("b.id").Asc())
		}
	default:
		// insertion order
		ds = ds.Order(goqu.I("b.id").Asc())
	}

	return ds.Prepared(true).ToSQL()
}

func scanAnnotatedBook(row pgx.Row) (entity.AnnotatedBook, error) {
	var b entity.AnnotatedBook
	var readersJSON []byte
	if err := row.Scan(
		&b.ID, &b.Name, &b.Price, &b.AuthorName,
		&b.AnnotatedLikes, &b.AnnotatedBookmarks, &b.OwnerName, &readersJSON,
	); err != nil {
		return entity.AnnotatedBook{}, err
	}
	b.Readers = []entity.Reader{}
	if err := json.Unmarshal(readersJSON, &b.Readers); err != nil {
		return entity.AnnotatedBook{}, err
	}
	return b, nil
}

func (r *BookPG) List(ctx context.Context, p usecase.ListParams) ([]entity.AnnotatedBook, error) {
	query, args, err := buildListQuery(p)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []entity.AnnotatedBook{}
	for rows.Next() {
		b, err := scanAnnotatedBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *BookPG) GetByID(ctx context.Context, id int64) (entity.AnnotatedBook, error) {
	query, args, err := annotatedDataset().Where(goqu.L(`b.id = ?`, id)).Prepared(true).ToSQL()
	if err != nil {
		return entity.AnnotatedBook{}, err
	}

	b, err := scanAnnotatedBook(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.AnnotatedBook{}, usecase.ErrNotFound
		}
		return entity.AnnotatedBook{}, err
	}
	return b, nil
}

func (r *BookPG) FindByID(ctx context.Context, id int64) (entity.Book, error) {
	const query = `
	SELECT id, name, price::text, author_name, owner_id, rating::text, created_at, updated_at
	FROM books
	WHERE id = $1
	LIMIT 1
	`
	var b entity.Book
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.Price, &b.AuthorName, &b.OwnerID, &b.Rating, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Book{}, usecase.ErrNotFound
		}
		return entity.Book{}, err
	}
	return b, nil
}

func (r *BookPG) Create(ctx context.Context, b *entity.Book) error {
	const query = `
	INSERT INTO books (name, price, author_name, owner_id)
	VALUES ($1, $2::numeric, $3, $4)
	RETURNING id, price::text, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, b.Name, b.Price, b.AuthorName, b.OwnerID).
		Scan(&b.ID, &b.Price, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BookPG) Update(ctx context.Context, b *entity.Book) error {
	const query = `
	UPDATE books
	SET name = $2, price = $3::numeric, author_name = $4, updated_at = NOW()
	WHERE id = $1
	RETURNING price::text, updated_at
	`
	err := r.db.QueryRow(ctx, query, b.ID, b.Name, b.Price, b.AuthorName).
		Scan(&b.Price, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return usecase.ErrNotFound
	}
	return err
}

func (r *BookPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrNotFound
	}
	return nil
}
