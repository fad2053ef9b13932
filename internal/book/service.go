package book

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service provides book-related business logic.
type Service struct {
	repo      Repository
	now       func() time.Time
	validator *payloadValidator
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for the publication year bound.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new book service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = newPayloadValidator(s.now)
	return s
}

// Create validates the payload and stores a new book.
func (s *Service) Create(ctx context.Context, in CreateInput) (Book, error) {
	if err := s.validator.check(in); err != nil {
		return Book{}, err
	}
	nb := in.command()

	if err := s.ensureISBNFree(ctx, nb.ISBN); err != nil {
		return Book{}, err
	}
	return s.repo.Insert(ctx, nb)
}

// List returns every book together with the total count.
func (s *Service) List(ctx context.Context) ([]Book, int, error) {
	books, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	return books, len(books), nil
}

// ListAvailable returns the books currently marked as available.
func (s *Service) ListAvailable(ctx context.Context) ([]Book, int, error) {
	books, err := s.repo.FindAvailable(ctx)
	if err != nil {
		return nil, 0, err
	}
	return books, len(books), nil
}

// Count returns the number of stored books.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Get returns a book by its ID.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	if id <= 0 {
		return Book{}, invalidID()
	}
	return s.find(ctx, id)
}

// Update applies the supplied fields to an existing book.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Book, error) {
	if id <= 0 {
		return Book{}, invalidID()
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if err := s.validator.check(in); err != nil {
		return Book{}, err
	}

	p := in.patch()
	if p.IsEmpty() {
		return existing, nil
	}
	if p.ISBN != nil && *p.ISBN != existing.ISBN {
		if err := s.ensureISBNFree(ctx, *p.ISBN); err != nil {
			return Book{}, err
		}
	}
	updated, err := s.repo.Update(ctx, id, p)
	if errors.Is(err, ErrNotFound) {
		return Book{}, notFound(id)
	}
	return updated, err
}

// PartialUpdate behaves exactly like Update.
func (s *Service) PartialUpdate(ctx context.Context, id int64, in UpdateInput) (Book, error) {
	return s.Update(ctx, id, in)
}

// Delete removes a book and returns the record as it was before removal.
func (s *Service) Delete(ctx context.Context, id int64) (Book, error) {
	if id <= 0 {
		return Book{}, invalidID()
	}
	existing, err := s.find(ctx, id)
	if err != nil {
		return Book{}, err
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if !removed {
		return Book{}, notFound(id)
	}
	return existing, nil
}

func (s *Service) find(ctx context.Context, id int64) (Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Book{}, notFound(id)
	}
	return b, err
}

func notFound(id int64) error {
	return fmt.Errorf("no book with id %d: %w", id, ErrNotFound)
}

func (s *Service) ensureISBNFree(ctx context.Context, isbn string) error {
	_, err := s.repo.FindByISBN(ctx, isbn)
	switch {
	case err == nil:
		return ErrConflict
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return err
	}
}
