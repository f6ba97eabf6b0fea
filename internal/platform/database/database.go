// Package database opens the SQL entity store backends and owns the schema.
//
// Two drivers are supported: Postgres through lib/pq and embedded SQLite through
// modernc.org/sqlite. Queries are built with goqu using the matching dialect.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	txcontext "biblio/pkg/platform/tx"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const pingTimeout = 5 * time.Second

// Open connects to driver/dsn and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// one writer at a time; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}
	return db, nil
}

// Dialect returns the goqu dialect for the connection's driver.
func Dialect(db *sqlx.DB) goqu.DialectWrapper {
	return goqu.Dialect(DialectName(db.DriverName()))
}

// DialectName maps a database/sql driver name to its goqu dialect.
func DialectName(driver string) string {
	if driver == DriverSQLite {
		return "sqlite3"
	}
	return DriverPostgres
}

// Execer returns the transaction carried by ctx, or db when there is none.
func Execer(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// ForUpdate adds a row lock on Postgres. SQLite serializes writers on its own.
func ForUpdate(db *sqlx.DB, ds *goqu.SelectDataset) *goqu.SelectDataset {
	if db.DriverName() == DriverPostgres {
		return ds.ForUpdate(goqu.Wait)
	}
	return ds
}

// IsUniqueViolation reports whether err is a unique constraint failure on either driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
