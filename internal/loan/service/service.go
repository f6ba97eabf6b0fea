// Package service implements the loan engine: the loan lifecycle, availability and
// eligibility checks, fine computation and overdue detection.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	catalogmodels "biblio/internal/catalog/models"
	"biblio/internal/loan/metrics"
	"biblio/internal/loan/models"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/audit"
	txcontext "biblio/pkg/platform/tx"
)

const tracerName = "biblio/internal/loan"

type LoanStore interface {
	Create(ctx context.Context, loan *models.Loan) error
	Delete(ctx context.Context, loanID id.LoanID) error
	FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	List(ctx context.Context) ([]*models.Loan, error)
	ListByStatus(ctx context.Context, statuses ...models.LoanStatus) ([]*models.Loan, error)
	ListByMember(ctx context.Context, memberID id.MemberID) ([]*models.Loan, error)
	ListByBook(ctx context.Context, bookID id.BookID) ([]*models.Loan, error)
	ListPastDue(ctx context.Context, now time.Time) ([]*models.Loan, error)
	Execute(ctx context.Context, loanID id.LoanID, validate func(*models.Loan) error, mutate func(*models.Loan)) (*models.Loan, error)
}

type BookStore interface {
	FindByID(ctx context.Context, bookID id.BookID) (*catalogmodels.Book, error)
	Execute(ctx context.Context, bookID id.BookID, validate func(*catalogmodels.Book) error, mutate func(*catalogmodels.Book)) (*catalogmodels.Book, error)
}

type MemberStore interface {
	FindByID(ctx context.Context, memberID id.MemberID) (*catalogmodels.Member, error)
	FindByEmail(ctx context.Context, email string) (*catalogmodels.Member, error)
	ListWithPendingFines(ctx context.Context) ([]*catalogmodels.Member, error)
	Execute(ctx context.Context, memberID id.MemberID, validate func(*catalogmodels.Member) error, mutate func(*catalogmodels.Member)) (*catalogmodels.Member, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ChangeNotifier is told which collection changed after a write commits.
type ChangeNotifier interface {
	Changed(ctx context.Context, collection string)
}

// StoreTx provides a transactional boundary across loans, books and members.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config holds the lending rules.
type Config struct {
	// DefaultLoanDays applies when a librarian creates a loan without a length.
	DefaultLoanDays int
	// MemberRequestDays is the loan length of a member self-service request.
	MemberRequestDays int
	Fines             models.FinePolicy
}

func DefaultConfig() Config {
	return Config{
		DefaultLoanDays:   7,
		MemberRequestDays: 7,
		Fines:             models.DefaultFinePolicy(),
	}
}

// Service orchestrates loans.
type Service struct {
	loans          LoanStore
	books          BookStore
	members        MemberStore
	tx             StoreTx
	config         Config
	logger         *slog.Logger
	auditPublisher AuditPublisher
	notifier       ChangeNotifier
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

// WithConfig overrides the lending rules. Zero loan lengths and a zero fine policy keep
// their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.DefaultLoanDays > 0 {
			s.config.DefaultLoanDays = cfg.DefaultLoanDays
		}
		if cfg.MemberRequestDays > 0 {
			s.config.MemberRequestDays = cfg.MemberRequestDays
		}
		if cfg.Fines != (models.FinePolicy{}) {
			s.config.Fines = cfg.Fines
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(loans LoanStore, books BookStore, members MemberStore, opts ...Option) *Service {
	s := &Service{
		loans:   loans,
		books:   books,
		members: members,
		config:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = txcontext.NewMemoryRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Config returns the lending rules in effect.
func (s *Service) Config() Config {
	return s.config
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}

func (s *Service) changed(ctx context.Context, collections ...string) {
	if s.notifier == nil {
		return
	}
	for _, c := range collections {
		s.notifier.Changed(ctx, c)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
