package member

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

	"biblio/internal/catalog/models"
	"biblio/internal/platform/database"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/sentinel"
)

// SQLStore persists members in Postgres or SQLite.
type SQLStore struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

func NewSQL(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, dialect: database.Dialect(db)}
}

type memberRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	NationalID   string    `db:"national_id"`
	MemberNumber string    `db:"member_number"`
	Email        string    `db:"email"`
	PendingFines int64     `db:"pending_fines"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

var memberColumns = []any{"id", "name", "national_id", "member_number", "email", "pending_fines", "created_at", "updated_at"}

func (r memberRow) toModel() (*models.Member, error) {
	parsed, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse member id: %w", err)
	}
	return &models.Member{
		ID:           id.MemberID(parsed),
		Name:         r.Name,
		NationalID:   r.NationalID,
		MemberNumber: r.MemberNumber,
		Email:        r.Email,
		PendingFines: r.PendingFines,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func record(m *models.Member) goqu.Record {
	return goqu.Record{
		"id":            m.ID.String(),
		"name":          m.Name,
		"national_id":   m.NationalID,
		"member_number": m.MemberNumber,
		"email":         m.Email,
		"pending_fines": m.PendingFines,
		"created_at":    m.CreatedAt,
		"updated_at":    m.UpdatedAt,
	}
}

func (s *SQLStore) Create(ctx context.Context, member *models.Member) error {
	query, args, err := s.dialect.Insert(database.TableMembers).Rows(record(member)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert member: %w", err)
	}
	if _, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, member *models.Member) error {
	rec := record(member)
	delete(rec, "id")
	delete(rec, "created_at")
	query, args, err := s.dialect.Update(database.TableMembers).
		Set(rec).
		Where(goqu.C("id").Eq(member.ID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build update member: %w", err)
	}
	res, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update member: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) Delete(ctx context.Context, memberID id.MemberID) error {
	query, args, err := s.dialect.Delete(database.TableMembers).
		Where(goqu.C("id").Eq(memberID.String())).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete member: %w", err)
	}
	res, err := database.Execer(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	return s.findOne(ctx, s.selectMembers().Where(goqu.C("id").Eq(memberID.String())))
}

func (s *SQLStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Member, error) {
	return s.findOne(ctx, s.selectMembers().Where(goqu.C("national_id").Eq(nationalID)))
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.findOne(ctx, s.selectMembers().
		Where(goqu.Func("LOWER", goqu.C("email")).Eq(strings.ToLower(email))).
		Order(goqu.C("created_at").Asc()).
		Limit(1))
}

func (s *SQLStore) List(ctx context.Context) ([]*models.Member, error) {
	return s.findMany(ctx, s.selectMembers().Order(goqu.C("name").Asc(), goqu.C("member_number").Asc()))
}

func (s *SQLStore) ListWithPendingFines(ctx context.Context) ([]*models.Member, error) {
	return s.findMany(ctx, s.selectMembers().
		Where(goqu.C("pending_fines").Gt(0)).
		Order(goqu.C("pending_fines").Desc(), goqu.C("name").Asc()))
}

func (s *SQLStore) ListMemberNumbers(ctx context.Context) ([]string, error) {
	query, args, err := s.dialect.From(database.TableMembers).Select("member_number").Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list member numbers: %w", err)
	}
	var numbers []string
	if err := sqlx.SelectContext(ctx, database.Execer(ctx, s.db), &numbers, query, args...); err != nil {
		return nil, fmt.Errorf("list member numbers: %w", err)
	}
	return numbers, nil
}

// Execute locks the row (FOR UPDATE on Postgres), validates, mutates and writes back.
func (s *SQLStore) Execute(ctx context.Context, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	ds := database.ForUpdate(s.db, s.selectMembers().Where(goqu.C("id").Eq(memberID.String())))
	member, err := s.findOne(ctx, ds)
	if err != nil {
		return nil, err
	}
	if err := validate(member); err != nil {
		return nil, err
	}
	mutate(member)
	if err := s.Update(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *SQLStore) selectMembers() *goqu.SelectDataset {
	return s.dialect.From(database.TableMembers).Select(memberColumns...)
}

func (s *SQLStore) findOne(ctx context.Context, ds *goqu.SelectDataset) (*models.Member, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select member: %w", err)
	}
	var row memberRow
	if err := sqlx.GetContext(ctx, database.Execer(ctx, s.db), &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select member: %w", err)
	}
	return row.toModel()
}

func (s *SQLStore) findMany(ctx context.Context, ds *goqu.SelectDataset) ([]*models.Member, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list members: %w", err)
	}
	var rows []memberRow
	if err := sqlx.SelectContext(ctx, database.Execer(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]*models.Member, 0, len(rows))
	for _, r := range rows {
		m, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
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
