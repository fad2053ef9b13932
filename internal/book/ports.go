package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
//
// Lookups return ErrNotFound when no row matches, and writes that would
// duplicate an ISBN return ErrConflict.
type Repository interface {
	Insert(ctx context.Context, nb NewBook) (Book, error)
	FindAll(ctx context.Context) ([]Book, error)
	FindByID(ctx context.Context, id int64) (Book, error)
	FindByISBN(ctx context.Context, isbn string) (Book, error)
	Update(ctx context.Context, id int64, p Patch) (Book, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
	FindAvailable(ctx context.Context) ([]Book, error)
}
