// Package sqlstore persists audit events into the audit_events table.
package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	audit "biblio/pkg/platform/audit"
	txcontext "biblio/pkg/platform/tx"
)

const table = "audit_events"

// Store writes events with the caller's transaction when one is in context, so an
// event is only recorded if the business write commits.
type Store struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// New builds a store for dialect "postgres" or "sqlite3".
func New(db *sqlx.DB, dialect string) *Store {
	return &Store{db: db, dialect: goqu.Dialect(dialect)}
}

func (s *Store) execer(ctx context.Context) sqlx.ExecerContext {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	details, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	query, args, err := s.dialect.Insert(table).Rows(goqu.Record{
		"id":          event.ID,
		"category":    string(event.Category),
		"occurred_at": event.Timestamp.UTC(),
		"action":      event.Action,
		"subject":     event.Subject,
		"actor_id":    event.ActorID,
		"reason":      event.Reason,
		"amount":      event.Amount,
		"request_id":  event.RequestID,
		"details":     details,
		"created_at":  time.Now().UTC(),
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := s.execer(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
