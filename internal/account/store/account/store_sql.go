package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"biblio/internal/account/models"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// SQLStore persists accounts in Postgres or SQLite. Emails are stored lower-cased.
type SQLStore struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

func NewSQL(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, dialect: database.Dialect(db)}
}

type accountRow struct {
	ID                   string       `db:"id"`
	Email                string       `db:"email"`
	FullName             string       `db:"full_name"`
	NationalID           string       `db:"national_id"`
	Role                 string       `db:"role"`
	Status               string       `db:"status"`
	PasswordHash         string       `db:"password_hash"`
	LastPasswordChangeAt sql.NullTime `db:"last_password_change_at"`
	CreatedAt            time.Time    `db:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

var accountColumns = []any{
	"id", "email", "full_name", "national_id", "role", "status",
	"password_hash", "last_password_change_at", "created_at", "updated_at",
}

func (r accountRow) toModel() (*models.Account, error) {
	parsed, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse account id: %w", err)
	}
	a := &models.Account{
		ID:           id.AccountID(parsed),
		Email:        r.Email,
		FullName:     r.FullName,
		NationalID:   r.NationalID,
		Role:         id.Role(r.Role),
		Status:       models.AccountStatus(r.Status),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastPasswordChangeAt.Valid {
		changed := r.LastPasswordChangeAt.Time.UTC()
		a.LastPasswordChangeAt = &changed
	}
	return a, nil
}

func record(a *models.Account) goqu.Record {
	var changed any
	if a.LastPasswordChangeAt != nil {
		changed = a.LastPasswordChangeAt.UTC()
	}
	return goqu.Record{
		"id":                      a.ID.String(),
		"email":                   strings.ToLower(a.Email),
		"full_name":               a.FullName,
		"national_id":             a.NationalID,
		"role":                    a.Role.String(),
		"status":                  a.Status.String(),
		"password_hash":           a.PasswordHash,
		"last_password_change_at": changed,
		"created_at":              a.CreatedAt.UTC(),
		"updated_at":              a.UpdatedAt.UTC(),
	}
}

func (s *SQLStore) Create(ctx context.Context, account *models.Account) error {
	query, args, err := s.dialect.Insert(database.TableAccounts).Rows(record(account)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert account: %w", err)
	}
	if _, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, account *models.Account) error {
	rec := record(account)
	delete(rec, "id")
	delete(rec, "created_at")
	query, args, err := s.dialect.Update(database.TableAccounts).
		Set(rec).
		Where(goqu.C("id").Eq(account.ID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build update account: %w", err)
	}
	res, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *SQLStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	return s.findOne(ctx, s.selectAccounts().Where(goqu.C("id").Eq(accountID.String())))
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, s.selectAccounts().Where(goqu.C("email").Eq(strings.ToLower(email))))
}

func (s *SQLStore) List(ctx context.Context) ([]*models.Account, error) {
	return s.findMany(ctx, s.selectAccounts().Order(goqu.C("created_at").Asc(), goqu.C("email").Asc()))
}

func (s *SQLStore) ListByStatus(ctx context.Context, status models.AccountStatus) ([]*models.Account, error) {
	return s.findMany(ctx, s.selectAccounts().
		Where(goqu.C("status").Eq(status.String())).
		Order(goqu.C("created_at").Asc(), goqu.C("email").Asc()))
}

// Execute locks the row (FOR UPDATE on Postgres), validates, mutates and writes back.
func (s *SQLStore) Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	ds := database.ForUpdate(s.db, s.selectAccounts().Where(goqu.C("id").Eq(accountID.String())))
	account, err := s.findOne(ctx, ds)
	if err != nil {
		return nil, err
	}
	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)
	if err := s.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *SQLStore) selectAccounts() *goqu.SelectDataset {
	return s.dialect.From(database.TableAccounts).Select(accountColumns...)
}

func (s *SQLStore) findOne(ctx context.Context, ds *goqu.SelectDataset) (*models.Account, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select account: %w", err)
	}
	var row accountRow
	if err := sqlx.GetContext(ctx, database.Execer(ctx, s.db), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return row.toModel()
}

func (s *SQLStore) findMany(ctx context.Context, ds *goqu.SelectDataset) ([]*models.Account, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list accounts: %w", err)
	}
	var rows []accountRow
	if err := sqlx.SelectContext(ctx, database.Execer(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]*models.Account, 0, len(rows))
	for _, r := range rows {
		a, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
