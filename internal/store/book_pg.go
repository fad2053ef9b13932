package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"libraryapi/internal/book"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const bookColumns = `id, title, author, isbn, publication_year, available, created_at, updated_at`

// BookPG is the Postgres-backed book repository.
type BookPG struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewBookPG(db *pgxpool.Pool, timeout time.Duration) *BookPG {
	return &BookPG{db: db, timeout: timeout}
}

func (r *BookPG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanBook(row pgx.Row) (book.Book, error) {
	var b book.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.PublicationYear, &b.Available, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func isPGUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *BookPG) Insert(ctx context.Context, nb book.NewBook) (book.Book, error) {
	const query = `
		INSERT INTO books (title, author, isbn, publication_year, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + bookColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, nb.Title, nb.Author, nb.ISBN, nb.PublicationYear, nb.Available))
	if err != nil {
		if isPGUniqueViolation(err) {
			return book.Book{}, book.ErrConflict
		}
		return book.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

func (r *BookPG) FindAll(ctx context.Context) ([]book.Book, error) {
	return r.list(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
}

func (r *BookPG) FindAvailable(ctx context.Context) ([]book.Book, error) {
	return r.list(ctx, `SELECT `+bookColumns+` FROM books WHERE available = TRUE ORDER BY id`)
}

func (r *BookPG) list(ctx context.Context, query string, args ...any) ([]book.Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []book.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookPG) FindByID(ctx context.Context, id int64) (book.Book, error) {
	return r.findOne(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
}

func (r *BookPG) FindByISBN(ctx context.Context, isbn string) (book.Book, error) {
	return r.findOne(ctx, `SELECT `+bookColumns+` FROM books WHERE isbn = $1 LIMIT 1`, isbn)
}

func (r *BookPG) findOne(ctx context.Context, query string, arg any) (book.Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return book.Book{}, book.ErrNotFound
		}
		return book.Book{}, fmt.Errorf("find book: %w", err)
	}
	return b, nil
}

func (r *BookPG) Update(ctx context.Context, id int64, p book.Patch) (book.Book, error) {
	if p.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{}
	argn := 1

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argn))
		args = append(args, value)
		argn++
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Author != nil {
		add("author", *p.Author)
	}
	if p.ISBN != nil {
		add("isbn", *p.ISBN)
	}
	if p.PublicationYear != nil {
		add("publication_year", *p.PublicationYear)
	}
	if p.Available != nil {
		add("available", *p.Available)
	}

	query := fmt.Sprintf(`UPDATE books SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argn, bookColumns)
	args = append(args, id)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return book.Book{}, book.ErrNotFound
		case isPGUniqueViolation(err):
			return book.Book{}, book.ErrConflict
		}
		return book.Book{}, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

func (r *BookPG) Delete(ctx context.Context, id int64) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookPG) Count(ctx context.Context) (int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var n int
	if err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}
