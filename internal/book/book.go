package book

import (
	"time"
)

// Book represents a book record.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	PublicationYear int       `json:"publicationYear"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewBook is a validated create command handed to the store.
type NewBook struct {
	Title           string
	Author          string
	ISBN            string
	PublicationYear int
	Available       bool
}

// Patch carries the fields of an update. Nil fields are left untouched.
type Patch struct {
	Title           *string
	Author          *string
	ISBN            *string
	PublicationYear *int
	Available       *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.ISBN == nil &&
		p.PublicationYear == nil && p.Available == nil
}

// Apply returns a copy of b with the patch fields set.
func (p Patch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.PublicationYear != nil {
		b.PublicationYear = *p.PublicationYear
	}
	if p.Available != nil {
		b.Available = *p.Available
	}
	return b
}
