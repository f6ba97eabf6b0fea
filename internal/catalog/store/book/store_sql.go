package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"biblio/internal/catalog/models"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// SQLStore persists books in Postgres or SQLite.
// This store is pure I/O; status rules live in the models and services.
type SQLStore struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

func NewSQL(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, dialect: database.Dialect(db)}
}

type bookRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Author    string    `db:"author"`
	ISBN      string    `db:"isbn"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var bookColumns = []any{"id", "title", "author", "isbn", "status", "created_at", "updated_at"}

func (r bookRow) toModel() (*models.Book, error) {
	parsed, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse book id: %w", err)
	}
	return &models.Book{
		ID:        id.BookID(parsed),
		Title:     r.Title,
		Author:    r.Author,
		ISBN:      r.ISBN,
		Status:    models.BookStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func record(b *models.Book) goqu.Record {
	return goqu.Record{
		"id":         b.ID.String(),
		"title":      b.Title,
		"author":     b.Author,
		"isbn":       b.ISBN,
		"status":     string(b.Status),
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
}

func (s *SQLStore) Create(ctx context.Context, book *models.Book) error {
	query, args, err := s.dialect.Insert(database.TableBooks).Rows(record(book)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert book: %w", err)
	}
	if _, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, book *models.Book) error {
	return s.update(ctx, book)
}

func (s *SQLStore) update(ctx context.Context, book *models.Book) error {
	rec := record(book)
	delete(rec, "id")
	delete(rec, "created_at")
	query, args, err := s.dialect.Update(database.TableBooks).
		Set(rec).
		Where(goqu.C("id").Eq(book.ID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build update book: %w", err)
	}
	res, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update book: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) Delete(ctx context.Context, bookID id.BookID) error {
	query, args, err := s.dialect.Delete(database.TableBooks).
		Where(goqu.C("id").Eq(bookID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete book: %w", err)
	}
	res, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) FindByID(ctx context.Context, bookID id.BookID) (*models.Book, error) {
	return s.findOne(ctx, s.selectBooks().Where(goqu.C("id").Eq(bookID.String())))
}

func (s *SQLStore) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return s.findOne(ctx, s.selectBooks().Where(goqu.C("isbn").Eq(isbn)))
}

func (s *SQLStore) List(ctx context.Context) ([]*models.Book, error) {
	return s.findMany(ctx, s.selectBooks().Order(goqu.C("title").Asc(), goqu.C("id").Asc()))
}

func (s *SQLStore) ListByStatus(ctx context.Context, status models.BookStatus) ([]*models.Book, error) {
	return s.findMany(ctx, s.selectBooks().
		Where(goqu.C("status").Eq(string(status))).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc()))
}

// Execute locks the row (FOR UPDATE on Postgres), validates, mutates and writes back.
// Must run inside a transaction for the lock to hold.
func (s *SQLStore) Execute(ctx context.Context, bookID id.BookID, validate func(*models.Book) error, mutate func(*models.Book)) (*models.Book, error) {
	ds := database.ForUpdate(s.db, s.selectBooks().Where(goqu.C("id").Eq(bookID.String())))
	book, err := s.findOne(ctx, ds)
	if err != nil {
		return nil, err
	}
	if err := validate(book); err != nil {
		return nil, err
	}
	mutate(book)
	if err := s.update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *SQLStore) selectBooks() *goqu.SelectDataset {
	return s.dialect.From(database.TableBooks).Select(bookColumns...)
}

func (s *SQLStore) findOne(ctx context.Context, ds *goqu.SelectDataset) (*models.Book, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select book: %w", err)
	}
	var row bookRow
	if err := sqlx.GetContext(ctx, database.Execer(ctx, s.db), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select book: %w", err)
	}
	return row.toModel()
}

func (s *SQLStore) findMany(ctx context.Context, ds *goqu.SelectDataset) ([]*models.Book, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list books: %w", err)
	}
	var rows []bookRow
	if err := sqlx.SelectContext(ctx, database.Execer(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	out := make([]*models.Book, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
