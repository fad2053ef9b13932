package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"libraryapi/internal/book"
)

// BookMemory keeps books in memory. Data is lost on restart.
// Safe for concurrent use.
type BookMemory struct {
	mu     sync.RWMutex
	books  map[int64]book.Book
	byISBN map[string]int64
	lastID int64
	now    func() time.Time
}

func NewBookMemory() *BookMemory {
	return &BookMemory{
		books:  make(map[int64]book.Book),
		byISBN: make(map[string]int64),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *BookMemory) Insert(_ context.Context, nb book.NewBook) (book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byISBN[nb.ISBN]; taken {
		return book.Book{}, book.ErrConflict
	}

	m.lastID++
	now := m.now()
	b := book.Book{
		ID:              m.lastID,
		Title:           nb.Title,
		Author:          nb.Author,
		ISBN:            nb.ISBN,
		PublicationYear: nb.PublicationYear,
		Available:       nb.Available,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.books[b.ID] = b
	m.byISBN[b.ISBN] = b.ID
	return b, nil
}

func (m *BookMemory) FindAll(_ context.Context) ([]book.Book, error) {
	return m.filter(func(book.Book) bool { return true }), nil
}

func (m *BookMemory) FindAvailable(_ context.Context) ([]book.Book, error) {
	return m.filter(func(b book.Book) bool { return b.Available }), nil
}

func (m *BookMemory) filter(keep func(book.Book) bool) []book.Book {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]book.Book, 0, len(m.books))
	for _, b := range m.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *BookMemory) FindByID(_ context.Context, id int64) (book.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return b, nil
}

func (m *BookMemory) FindByISBN(_ context.Context, isbn string) (book.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byISBN[isbn]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return m.books[id], nil
}

func (m *BookMemory) Update(_ context.Context, id int64, p book.Patch) (book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	if p.IsEmpty() {
		return existing, nil
	}
	if p.ISBN != nil {
		if owner, taken := m.byISBN[*p.ISBN]; taken && owner != id {
			return book.Book{}, book.ErrConflict
		}
	}

	updated := p.Apply(existing)
	updated.UpdatedAt = m.now()
	delete(m.byISBN, existing.ISBN)
	m.byISBN[updated.ISBN] = id
	m.books[id] = updated
	return updated, nil
}

func (m *BookMemory) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return false, nil
	}
	delete(m.books, id)
	delete(m.byISBN, b.ISBN)
	return true, nil
}

func (m *BookMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.books), nil
}
