// Package service implements access control: membership requests, librarian approval,
// registration completion, login and password changes.
package service

import (
	"context"
	"log/slog"
	"time"

	"biblio/internal/account/metrics"
	"biblio/internal/account/models"
	"biblio/internal/account/notify"
	catalogmodels "biblio/internal/catalog/models"
	catalogservice "biblio/internal/catalog/service"
	id "biblio/pkg/domain"
	"biblio/pkg/platform/audit"
	txcontext "biblio/pkg/platform/tx"
)

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	ListByStatus(ctx context.Context, status models.AccountStatus) ([]*models.Account, error)
	Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error)
}

// TokenStore holds registration tokens. Find reports sentinel.ErrExpired for lapsed tokens.
type TokenStore interface {
	Save(ctx context.Context, token *models.RegistrationToken) error
	Find(ctx context.Context, token string, now time.Time) (*models.RegistrationToken, error)
	Delete(ctx context.Context, token string) error
}

// MemberRegistrar creates or finds the catalog member behind an activated MEMBER account.
type MemberRegistrar interface {
	CreateMember(ctx context.Context, in catalogservice.MemberInput) (*catalogmodels.Member, error)
	GetMemberByNationalID(ctx context.Context, nationalID string) (*catalogmodels.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*catalogmodels.Member, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

type TokenIssuer interface {
	GenerateAccessToken(accountID id.AccountID, email string, role id.Role, expiresIn time.Duration) (string, error)
}

type Mailer interface {
	SendApproval(ctx context.Context, email notify.ApprovalEmail) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// ChangeNotifier is told which collection changed after a write commits.
type ChangeNotifier interface {
	Changed(ctx context.Context, collection string)
}

type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config holds account policy.
type Config struct {
	AccessTokenTTL         time.Duration
	RegistrationTokenTTL   time.Duration
	PasswordChangeCooldown time.Duration
	MinPasswordLength      int
	// RegistrationBaseURL is the page that completes a registration; the token is
	// appended as a query parameter.
	RegistrationBaseURL string
}

func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:         12 * time.Hour,
		RegistrationTokenTTL:   24 * time.Hour,
		PasswordChangeCooldown: 5 * time.Minute,
		MinPasswordLength:      6,
		RegistrationBaseURL:    "http://localhost:3000/completar-registro",
	}
}

// Service orchestrates accounts.
type Service struct {
	accounts       AccountStore
	tokens         TokenStore
	members        MemberRegistrar
	hasher         PasswordHasher
	issuer         TokenIssuer
	mailer         Mailer
	tx             StoreTx
	cfg            Config
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

// WithMailer sets the approval email sender. Without one, approvals only log the link.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

func New(accounts AccountStore, tokens TokenStore, members MemberRegistrar, hasher PasswordHasher, issuer TokenIssuer, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		tokens:   tokens,
		members:  members,
		hasher:   hasher,
		issuer:   issuer,
		cfg:      DefaultConfig(),
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
