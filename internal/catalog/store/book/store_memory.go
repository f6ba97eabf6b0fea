package book

import (
	"context"
	"sort"
	"sync"

	"biblio/internal/catalog/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory book store. Callers get copies, never the
// stored pointers.
type InMemory struct {
	mu    sync.RWMutex
	books map[id.BookID]*models.Book
}

func NewInMemory() *InMemory {
	return &InMemory{books: make(map[id.BookID]*models.Book)}
}

// Create inserts a book. Returns sentinel.ErrAlreadyUsed when the ISBN is taken.
func (s *InMemory) Create(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[book.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if s.isbnTakenLocked(book.ISBN, book.ID) {
		return sentinel.ErrAlreadyUsed
	}
	s.books[book.ID] = clone(book)
	return nil
}

// Update replaces a book. Uniqueness of ISBN ignores the book itself.
func (s *InMemory) Update(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[book.ID]; !exists {
		return sentinel.ErrNotFound
	}
	if s.isbnTakenLocked(book.ISBN, book.ID) {
		return sentinel.ErrAlreadyUsed
	}
	s.books[book.ID] = clone(book)
	return nil
}

func (s *InMemory) Delete(_ context.Context, bookID id.BookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[bookID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.books, bookID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, bookID id.BookID) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.books[bookID]; ok {
		return clone(b), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByISBN(_ context.Context, isbn string) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.ISBN == isbn {
			return clone(b), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns every book ordered by title.
func (s *InMemory) List(_ context.Context) ([]*models.Book, error) {
	return s.collect(func(*models.Book) bool { return true }), nil
}

// ListByStatus returns books with status, ordered by title.
func (s *InMemory) ListByStatus(_ context.Context, status models.BookStatus) ([]*models.Book, error) {
	return s.collect(func(b *models.Book) bool { return b.Status == status }), nil
}

// Execute atomically validates and mutates a book under the store lock.
// If validate returns an error the book is left untouched.
func (s *InMemory) Execute(_ context.Context, bookID id.BookID, validate func(*models.Book) error, mutate func(*models.Book)) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.books[bookID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(stored)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.books[bookID] = working
	return clone(working), nil
}

func (s *InMemory) collect(keep func(*models.Book) bool) []*models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Book, 0, len(s.books))
	for _, b := range s.books {
		if keep(b) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Title < out[j].Title
	})
	return out
}

func (s *InMemory) isbnTakenLocked(isbn string, self id.BookID) bool {
	for bookID, b := range s.books {
		if bookID != self && b.ISBN == isbn {
			return true
		}
	}
	return false
}

func clone(b *models.Book) *models.Book {
	c := *b
	return &c
}
