package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"biblio/internal/loan/models"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// SQLStore persists loans in Postgres or SQLite. Timestamps are written in UTC so
// that SQLite's text comparison orders them correctly.
type SQLStore struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

func NewSQL(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, dialect: database.Dialect(db)}
}

type loanRow struct {
	ID         string       `db:"id"`
	BookID     string       `db:"book_id"`
	MemberID   string       `db:"member_id"`
	BookTitle  string       `db:"book_title"`
	BookISBN   string       `db:"book_isbn"`
	StartDate  time.Time    `db:"start_date"`
	DueDate    time.Time    `db:"due_date"`
	ReturnDate sql.NullTime `db:"return_date"`
	Status     string       `db:"status"`
	FineAmount int64        `db:"fine_amount"`
}

var loanColumns = []any{"id", "book_id", "member_id", "book_title", "book_isbn", "start_date", "due_date", "return_date", "status", "fine_amount"}

func (r loanRow) toModel() (*models.Loan, error) {
	loanID, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse loan id: %w", err)
	}
	bookID, err := uuid.Parse(r.BookID)
	if err != nil {
		return nil, fmt.Errorf("parse book id: %w", err)
	}
	memberID, err := uuid.Parse(r.MemberID)
	if err != nil {
		return nil, fmt.Errorf("parse member id: %w", err)
	}
	l := &models.Loan{
		ID:         id.LoanID(loanID),
		BookID:     id.BookID(bookID),
		MemberID:   id.MemberID(memberID),
		BookTitle:  r.BookTitle,
		BookISBN:   r.BookISBN,
		StartDate:  r.StartDate.UTC(),
		DueDate:    r.DueDate.UTC(),
		Status:     models.LoanStatus(r.Status),
		FineAmount: r.FineAmount,
	}
	if r.ReturnDate.Valid {
		returned := r.ReturnDate.Time.UTC()
		l.ReturnDate = &returned
	}
	return l, nil
}

func record(l *models.Loan) goqu.Record {
	var returned any
	if l.ReturnDate != nil {
		returned = l.ReturnDate.UTC()
	}
	return goqu.Record{
		"id":          l.ID.String(),
		"book_id":     l.BookID.String(),
		"member_id":   l.MemberID.String(),
		"book_title":  l.BookTitle,
		"book_isbn":   l.BookISBN,
		"start_date":  l.StartDate.UTC(),
		"due_date":    l.DueDate.UTC(),
		"return_date": returned,
		"status":      string(l.Status),
		"fine_amount": l.FineAmount,
	}
}

func (s *SQLStore) Create(ctx context.Context, loan *models.Loan) error {
	query, args, err := s.dialect.Insert(database.TableLoans).Rows(record(loan)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert loan: %w", err)
	}
	if _, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, loan *models.Loan) error {
	rec := record(loan)
	delete(rec, "id")
	query, args, err := s.dialect.Update(database.TableLoans).
		Set(rec).
		Where(goqu.C("id").Eq(loan.ID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build update loan: %w", err)
	}
	res, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) Delete(ctx context.Context, loanID id.LoanID) error {
	query, args, err := s.dialect.Delete(database.TableLoans).
		Where(goqu.C("id").Eq(loanID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete loan: %w", err)
	}
	res, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	return s.findOne(ctx, s.selectLoans().Where(goqu.C("id").Eq(loanID.String())))
}

// List returns every loan, newest first.
func (s *SQLStore) List(ctx context.Context) ([]*models.Loan, error) {
	return s.findMany(ctx, s.selectLoans())
}

func (s *SQLStore) ListByStatus(ctx context.Context, statuses ...models.LoanStatus) ([]*models.Loan, error) {
	return s.findMany(ctx, s.selectLoans().Where(statusIn(statuses)))
}

func (s *SQLStore) ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Loan, error) {
	return s.findMany(ctx, s.selectLoans().Where(goqu.C("member_id").Eq(memberID.String())))
}

func (s *SQLStore) ListByBook(ctx context.Context, bookID id.BookID) ([]*models.Loan, error) {
	return s.findMany(ctx, s.selectLoans().Where(goqu.C("book_id").Eq(bookID.String())))
}

// ListPastDue returns ACTIVE loans whose due date is before now.
func (s *SQLStore) ListPastDue(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	return s.findMany(ctx, s.selectLoans().Where(
		goqu.C("status").Eq(string(models.LoanStatusActive)),
		goqu.C("due_date").Lt(now.UTC()),
	))
}

func (s *SQLStore) CountOutstandingByBook(ctx context.Context, bookID id.BookID) (int, error) {
	return s.count(ctx, goqu.C("book_id").Eq(bookID.String()), statusIn(models.OutstandingStatuses))
}

func (s *SQLStore) CountOutstandingByMember(ctx context.Context, memberID id.MemberID) (int, error) {
	return s.count(ctx, goqu.C("member_id").Eq(memberID.String()), statusIn(models.OutstandingStatuses))
}

// Execute locks the row (FOR UPDATE on Postgres), validates, mutates and writes back.
func (s *SQLStore) Execute(ctx context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error) {
	ds := database.ForUpdate(s.db, s.dialect.From(database.TableLoans).Select(loanColumns...).Where(goqu.C("id").Eq(loanID.String())))
	loan, err := s.findOne(ctx, ds)
	if err != nil {
		return nil, err
	}
	if err := validate(loan); err != nil {
		return nil, err
	}
	mutate(loan)
	if err := s.Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *SQLStore) selectLoans() *goqu.SelectDataset {
	return s.dialect.From(database.TableLoans).
		Select(loanColumns...).
		Order(goqu.C("start_date").Desc(), goqu.C("id").Asc())
}

func (s *SQLStore) count(ctx context.Context, where ...exp.Expression) (int, error) {
	query, args, err := s.dialect.From(database.TableLoans).
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count loans: %w", err)
	}
	var n int
	if err := sqlx.GetContext(ctx, database.Execer(ctx, s.db), &n, query, args...); err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}
	return n, nil
}

func (s *SQLStore) findOne(ctx context.Context, ds *goqu.SelectDataset) (*models.Loan, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select loan: %w", err)
	}
	var row loanRow
	if err := sqlx.GetContext(ctx, database.Execer(ctx, s.db), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select loan: %w", err)
	}
	return row.toModel()
}

func (s *SQLStore) findMany(ctx context.Context, ds *goqu.SelectDataset) ([]*models.Loan, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list loans: %w", err)
	}
	var rows []loanRow
	if err := sqlx.SelectContext(ctx, database.Execer(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	out := make([]*models.Loan, 0, len(rows))
	for _, r := range rows {
		l, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func statusIn(statuses []models.LoanStatus) exp.Expression {
	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}
	return goqu.C("status").In(values)
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
