package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Table names.
const (
	TableBooks       = "books"
	TableMembers     = "members"
	TableLoans       = "loans"
	TableAccounts    = "accounts"
	TableAuditEvents = "audit_events"
)

// {uuid} and {ts} are replaced with driver-specific column types.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id {uuid} PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		isbn TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id {uuid} PRIMARY KEY,
		name TEXT NOT NULL,
		national_id TEXT NOT NULL UNIQUE,
		member_number TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		pending_fines BIGINT NOT NULL DEFAULT 0 CHECK (pending_fines >= 0),
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_members_email ON members (email)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id {uuid} PRIMARY KEY,
		book_id {uuid} NOT NULL,
		member_id {uuid} NOT NULL,
		book_title TEXT NOT NULL,
		book_isbn TEXT NOT NULL,
		start_date {ts} NOT NULL,
		due_date {ts} NOT NULL,
		return_date {ts},
		status TEXT NOT NULL,
		fine_amount BIGINT NOT NULL DEFAULT 0 CHECK (fine_amount >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_status ON loans (status)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_member ON loans (member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_loans_book ON loans (book_id)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id {uuid} PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		national_id TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		last_password_change_at {ts},
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id {uuid} PRIMARY KEY,
		category TEXT NOT NULL,
		occurred_at {ts} NOT NULL,
		action TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		actor_id TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		amount BIGINT NOT NULL DEFAULT 0,
		request_id TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '{}',
		created_at {ts} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_subject ON audit_events (subject)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	uuidType, tsType := "UUID", "TIMESTAMPTZ"
	if db.DriverName() == DriverSQLite {
		uuidType, tsType = "TEXT", "TIMESTAMP"
	}
	replacer := strings.NewReplacer("{uuid}", uuidType, "{ts}", tsType)
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, replacer.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
