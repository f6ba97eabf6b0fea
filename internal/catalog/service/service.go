// Package service implements the catalog manager: books and members with their
// uniqueness rules and member number assignment.
package service

import (
	"context"
	"log/slog"

	"biblio/internal/catalog/metrics"
	"biblio/internal/catalog/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/audit"
	txcontext "biblio/pkg/platform/tx"
)

type BookStore interface {
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, bookID id.BookID) error
	FindByID(ctx context.Context, bookID id.BookID) (*models.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
	List(ctx context.Context) ([]*models.Book, error)
	ListByStatus(ctx context.Context, status models.BookStatus) ([]*models.Book, error)
}

type MemberStore interface {
	Create(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, memberID id.MemberID) error
	FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
	ListMemberNumbers(ctx context.Context) ([]string, error)
}

// LoanCounter reports loans that still hold a book or a member (PENDING, ACTIVE, OVERDUE).
type LoanCounter interface {
	CountOutstandingByBook(ctx context.Context, bookID id.BookID) (int, error)
	CountOutstandingByMember(ctx context.Context, memberID id.MemberID) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ChangeNotifier is told which collection changed after a write commits.
type ChangeNotifier interface {
	Changed(ctx context.Context, collection string)
}

// StoreTx provides a transactional boundary over the catalog stores.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates the catalog.
type Service struct {
	books          BookStore
	members        MemberStore
	loans          LoanCounter
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	notifier       ChangeNotifier
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx shares a transaction boundary with other services. Defaults to a private
// in-memory runner.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithChangeNotifier(n ChangeNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(books BookStore, members MemberStore, loans LoanCounter, opts ...Option) *Service {
	s := &Service{books: books, members: members, loans: loans}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = txcontext.NewMemoryRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}

func (s *Service) changed(ctx context.Context, collection string) {
	if s.notifier != nil {
		s.notifier.Changed(ctx, collection)
	}
}
