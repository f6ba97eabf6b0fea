// Package publisher is the single entry point services use to emit audit events.
package publisher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	audit "biblio/pkg/platform/audit"
	"biblio/pkg/platform/audit/worker"
	"biblio/pkg/requestcontext"
)

// Publisher enriches events, writes an audit log line, and hands the event to its
// store either synchronously or through a buffered worker.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	bufferSize int
	mu         sync.RWMutex
	inbox      chan audit.Event
	closed     bool
	done       chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking; events beyond size are dropped with a warning.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.bufferSize = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records an event. In async mode it never blocks and never fails.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		if actor := requestcontext.AccountID(ctx); !actor.IsNil() {
			event.ActorID = actor.String()
		}
	}

	p.logger.InfoContext(ctx, event.Action,
		"log_type", "audit",
		"category", event.Category,
		"subject", event.Subject,
		"actor_id", event.ActorID,
		"request_id", event.RequestID,
	)

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
	}
	return nil
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()
	<-p.done
}
