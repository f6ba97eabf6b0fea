package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	dErrors "biblio/pkg/domain-errors"
	txcontext "biblio/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner runs a unit of work in one SQL transaction carried through ctx.
// Nested calls join the outer transaction.
type TxRunner struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db, timeout: defaultTxTimeout}
}

func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
