package models

import (
	"strings"
	"time"

	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
)

// BookStatus is owned by the loan engine; catalog edits never change it.
type BookStatus string

const (
	BookStatusAvailable BookStatus = "AVAILABLE"
	BookStatusLoaned    BookStatus = "LOANED"
)

func (s BookStatus) IsValid() bool {
	return s == BookStatusAvailable || s == BookStatusLoaned
}

// ParseBookStatus parses a status filter from external input.
func ParseBookStatus(s string) (BookStatus, error) {
	status := BookStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be AVAILABLE or LOANED")
	}
	return status, nil
}

// Book is a physical copy in the catalog.
//
// Invariants:
//   - ISBN is exactly 13 digits and unique across books
//   - Status is LOANED exactly while one ACTIVE or OVERDUE loan references the book
type Book struct {
	ID        id.BookID  `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	ISBN      string     `json:"isbn"`
	Status    BookStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewBook(bookID id.BookID, title, author, isbn string, now time.Time) (*Book, error) {
	if err := validateBookDetails(title, author, isbn); err != nil {
		return nil, err
	}
	return &Book{
		ID:        bookID,
		Title:     title,
		Author:    author,
		ISBN:      isbn,
		Status:    BookStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ApplyDetails replaces the editable fields. Status is left untouched.
func (b *Book) ApplyDetails(title, author, isbn string, now time.Time) error {
	if err := validateBookDetails(title, author, isbn); err != nil {
		return err
	}
	b.Title = title
	b.Author = author
	b.ISBN = isbn
	b.UpdatedAt = now
	return nil
}

func (b *Book) IsAvailable() bool {
	return b.Status == BookStatusAvailable
}

// CanLend checks that the book can go out on a loan.
func (b *Book) CanLend() error {
	if !b.IsAvailable() {
		return dErrors.New(dErrors.CodeUnavailable, "book is not available")
	}
	return nil
}

// ApplyLoaned marks the book as out. Call CanLend first.
func (b *Book) ApplyLoaned(now time.Time) {
	b.Status = BookStatusLoaned
	b.UpdatedAt = now
}

// ApplyReturned puts the book back on the shelf.
func (b *Book) ApplyReturned(now time.Time) {
	b.Status = BookStatusAvailable
	b.UpdatedAt = now
}

func validateBookDetails(title, author, isbn string) error {
	if title == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "title is required")
	}
	if author == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "author is required")
	}
	if !id.IsValidISBN(isbn) {
		return dErrors.New(dErrors.CodeInvariantViolation, "isbn must be exactly 13 digits")
	}
	return nil
}
