package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
)

// ChangeChannel is the Postgres NOTIFY channel carrying collection names.
const ChangeChannel = "biblio_changes"

const listenerRetryDelay = 2 * time.Second

// ChangeSink receives collection change signals.
type ChangeSink interface {
	Changed(ctx context.Context, collection string)
}

// PGNotifier publishes collection changes with pg_notify so every instance
// listening on ChangeChannel refreshes its subscribers.
type PGNotifier struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewPGNotifier(db *sqlx.DB, logger *slog.Logger) *PGNotifier {
	return &PGNotifier{db: db, logger: logger}
}

// Changed is best-effort: a failed notify only delays subscribers until the next change.
func (n *PGNotifier) Changed(ctx context.Context, collection string) {
	if _, err := n.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", ChangeChannel, collection); err != nil {
		n.logger.WarnContext(ctx, "pg_notify failed", "collection", collection, "error", err)
	}
}

// Listener relays Postgres notifications into a local sink.
type Listener struct {
	dsn    string
	sink   ChangeSink
	logger *slog.Logger
}

func NewListener(dsn string, sink ChangeSink, logger *slog.Logger) *Listener {
	return &Listener{dsn: dsn, sink: sink, logger: logger}
}

// Run listens until ctx is cancelled, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.WarnContext(ctx, "change listener disconnected", "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(listenerRetryDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect listener: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.logger.InfoContext(ctx, "change listener started", "channel", ChangeChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.sink.Changed(ctx, notification.Payload)
	}
}
