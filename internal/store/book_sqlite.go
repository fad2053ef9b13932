package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"libraryapi/internal/book"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const (
	dialectSQLite = "sqlite3"
	tableBooks    = "books"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title VARCHAR(255) NOT NULL,
	author VARCHAR(255) NOT NULL,
	isbn VARCHAR(17) NOT NULL UNIQUE,
	publication_year INTEGER NOT NULL,
	available BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

var bookSelectColumns = []any{"id", "title", "author", "isbn", "publication_year", "available", "created_at", "updated_at"}

type bookRow struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Author          string    `db:"author"`
	ISBN            string    `db:"isbn"`
	PublicationYear int       `db:"publication_year"`
	Available       bool      `db:"available"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r bookRow) toBook() book.Book {
	return book.Book{
		ID:              r.ID,
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		PublicationYear: r.PublicationYear,
		Available:       r.Available,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// BookSQLite stores books in a single SQLite database file.
// AUTOINCREMENT keeps deleted IDs from being handed out again.
type BookSQLite struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
	now     func() time.Time
}

// OpenBookSQLite opens (creating if needed) the database at path.
// Use ":memory:" for an ephemeral database.
func OpenBookSQLite(path string) (*BookSQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &BookSQLite{
		db:      db,
		builder: goqu.Dialect(dialectSQLite),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *BookSQLite) Close() error {
	return s.db.Close()
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *BookSQLite) Insert(ctx context.Context, nb book.NewBook) (book.Book, error) {
	now := s.now()
	query, args, err := s.builder.Insert(tableBooks).Prepared(true).Rows(goqu.Record{
		"title":            nb.Title,
		"author":           nb.Author,
		"isbn":             nb.ISBN,
		"publication_year": nb.PublicationYear,
		"available":        nb.Available,
		"created_at":       now,
		"updated_at":       now,
	}).ToSQL()
	if err != nil {
		return book.Book{}, errors.Join(errors.New("build insert query"), err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return book.Book{}, book.ErrConflict
		}
		return book.Book{}, fmt.Errorf("insert book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return book.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return s.FindByID(ctx, id)
}

func (s *BookSQLite) selectBooks() *goqu.SelectDataset {
	return s.builder.From(tableBooks).Prepared(true).Select(bookSelectColumns...)
}

func (s *BookSQLite) FindAll(ctx context.Context) ([]book.Book, error) {
	return s.list(ctx, s.selectBooks().Order(goqu.C("id").Asc()))
}

func (s *BookSQLite) FindAvailable(ctx context.Context) ([]book.Book, error) {
	return s.list(ctx, s.selectBooks().Where(goqu.Ex{"available": true}).Order(goqu.C("id").Asc()))
}

func (s *BookSQLite) list(ctx context.Context, ds *goqu.SelectDataset) ([]book.Book, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, errors.Join(errors.New("build select query"), err)
	}
	var rows []bookRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	out := make([]book.Book, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toBook())
	}
	return out, nil
}

func (s *BookSQLite) FindByID(ctx context.Context, id int64) (book.Book, error) {
	return s.findOne(ctx, s.selectBooks().Where(goqu.Ex{"id": id}))
}

func (s *BookSQLite) FindByISBN(ctx context.Context, isbn string) (book.Book, error) {
	return s.findOne(ctx, s.selectBooks().Where(goqu.Ex{"isbn": isbn}).Limit(1))
}

func (s *BookSQLite) findOne(ctx context.Context, ds *goqu.SelectDataset) (book.Book, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return book.Book{}, errors.Join(errors.New("build select query"), err)
	}
	var row bookRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return book.Book{}, book.ErrNotFound
		}
		return book.Book{}, fmt.Errorf("find book: %w", err)
	}
	return row.toBook(), nil
}

func (s *BookSQLite) Update(ctx context.Context, id int64, p book.Patch) (book.Book, error) {
	if p.IsEmpty() {
		return s.FindByID(ctx, id)
	}

	rec := goqu.Record{"updated_at": s.now()}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.Author != nil {
		rec["author"] = *p.Author
	}
	if p.ISBN != nil {
		rec["isbn"] = *p.ISBN
	}
	if p.PublicationYear != nil {
		rec["publication_year"] = *p.PublicationYear
	}
	if p.Available != nil {
		rec["available"] = *p.Available
	}

	query, args, err := s.builder.Update(tableBooks).Prepared(true).Set(rec).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return book.Book{}, errors.Join(errors.New("build update query"), err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return book.Book{}, book.ErrConflict
		}
		return book.Book{}, fmt.Errorf("update book: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return book.Book{}, book.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *BookSQLite) Delete(ctx context.Context, id int64) (bool, error) {
	query, args, err := s.builder.Delete(tableBooks).Prepared(true).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return false, errors.Join(errors.New("build delete query"), err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete book: %w", err)
	}
	return n > 0, nil
}

func (s *BookSQLite) Count(ctx context.Context) (int, error) {
	query, args, err := s.builder.From(tableBooks).Prepared(true).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, errors.Join(errors.New("build count query"), err)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}
