package service

import (
	"context"
	"strings"

	"biblio/internal/catalog/models"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/changefeed"
	"biblio/pkg/requestcontext"
)

// BookInput carries the editable book fields.
type BookInput struct {
	Title  string
	Author string
	ISBN   string
}

func (in BookInput) normalized() BookInput {
	return BookInput{
		Title:  strings.TrimSpace(in.Title),
		Author: strings.TrimSpace(in.Author),
		ISBN:   strings.TrimSpace(in.ISBN),
	}
}

// CreateBook adds an AVAILABLE book. The ISBN must be 13 digits and unused.
func (s *Service) CreateBook(ctx context.Context, in BookInput) (*models.Book, error) {
	in = in.normalized()
	var book *models.Book
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := models.NewBook(id.NewBookID(), in.Title, in.Author, in.ISBN, requestcontext.Now(txCtx))
		if err != nil {
			return asValidation(err)
		}
		if err := s.requireISBNFree(txCtx, b.ISBN, b.ID); err != nil {
			return err
		}
		if err := s.books.Create(txCtx, b); err != nil {
			return wrapStoreErr(err, "book not found", "isbn already registered", "failed to create book")
		}
		book = b
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventBookCreated),
			Subject: b.ID.String(),
			Details: map[string]string{"isbn": b.ISBN, "title": b.Title},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "book created", "book_id", book.ID, "isbn", book.ISBN)
	if s.metrics != nil {
		s.metrics.IncrementBooksCreated()
	}
	s.changed(ctx, changefeed.CollectionBooks)
	return book, nil
}

// UpdateBook edits title, author and ISBN. The ISBN may stay the same; status is
// never changed here.
func (s *Service) UpdateBook(ctx context.Context, bookID id.BookID, in BookInput) (*models.Book, error) {
	in = in.normalized()
	var book *models.Book
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.books.FindByID(txCtx, bookID)
		if err != nil {
			return wrapStoreErr(err, "book not found", "isbn already registered", "failed to load book")
		}
		if err := b.ApplyDetails(in.Title, in.Author, in.ISBN, requestcontext.Now(txCtx)); err != nil {
			return asValidation(err)
		}
		if err := s.requireISBNFree(txCtx, b.ISBN, b.ID); err != nil {
			return err
		}
		if err := s.books.Update(txCtx, b); err != nil {
			return wrapStoreErr(err, "book not found", "isbn already registered", "failed to update book")
		}
		book = b
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventBookUpdated),
			Subject: b.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, changefeed.CollectionBooks)
	return book, nil
}

// DeleteBook removes a book that no outstanding loan references.
func (s *Service) DeleteBook(ctx context.Context, bookID id.BookID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.books.FindByID(txCtx, bookID); err != nil {
			return wrapStoreErr(err, "book not found", "", "failed to load book")
		}
		outstanding, err := s.loans.CountOutstandingByBook(txCtx, bookID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check loans")
		}
		if outstanding > 0 {
			if s.metrics != nil {
				s.metrics.IncrementDeleteRefused("book")
			}
			return dErrors.New(dErrors.CodeConflict, "book has outstanding loans")
		}
		if err := s.books.Delete(txCtx, bookID); err != nil {
			return wrapStoreErr(err, "book not found", "", "failed to delete book")
		}
		return s.emit(txCtx, audit.Event{
			Action:  string(audit.EventBookDeleted),
			Subject: bookID.String(),
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "book deleted", "book_id", bookID)
	if s.metrics != nil {
		s.metrics.IncrementBooksDeleted()
	}
	s.changed(ctx, changefeed.CollectionBooks)
	return nil
}

func (s *Service) GetBook(ctx context.Context, bookID id.BookID) (*models.Book, error) {
	b, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, wrapStoreErr(err, "book not found", "", "failed to load book")
	}
	return b, nil
}

// ListBooks returns the catalog ordered by title.
func (s *Service) ListBooks(ctx context.Context) ([]*models.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list books")
	}
	return books, nil
}

func (s *Service) ListBooksByStatus(ctx context.Context, status models.BookStatus) ([]*models.Book, error) {
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "status must be AVAILABLE or LOANED")
	}
	books, err := s.books.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list books")
	}
	return books, nil
}

func (s *Service) requireISBNFree(ctx context.Context, isbn string, self id.BookID) error {
	existing, err := s.books.FindByISBN(ctx, isbn)
	if err == nil && existing.ID != self {
		return dErrors.New(dErrors.CodeUniqueness, "isbn already registered")
	}
	if err != nil && !isNotFound(err) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check isbn")
	}
	return nil
}
