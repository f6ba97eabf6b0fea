package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	accountmetrics "biblio/internal/account/metrics"
	"biblio/internal/account/notify"
	"biblio/internal/account/secrets"
	accountservice "biblio/internal/account/service"
	accountstore "biblio/internal/account/store/account"
	tokenstore "biblio/internal/account/store/token"
	catalogmetrics "biblio/internal/catalog/metrics"
	catalogservice "biblio/internal/catalog/service"
	bookstore "biblio/internal/catalog/store/book"
	memberstore "biblio/internal/catalog/store/member"
	httpapi "biblio/internal/http"
	jwttoken "biblio/internal/jwt_token"
	loanmetrics "biblio/internal/loan/metrics"
	"biblio/internal/loan/models"
	loanservice "biblio/internal/loan/service"
	loanstore "biblio/internal/loan/store"
	"biblio/internal/platform/config"
	"biblio/internal/platform/database"
	"biblio/internal/platform/logger"
	"biblio/internal/platform/redis"
	audit "biblio/pkg/platform/audit"
	"biblio/pkg/platform/audit/publisher"
	kafkastore "biblio/pkg/platform/audit/store/kafka"
	auditmemory "biblio/pkg/platform/audit/store/memory"
	"biblio/pkg/platform/audit/store/sqlstore"
	"biblio/pkg/platform/changefeed"
	txcontext "biblio/pkg/platform/tx"
)

// txRunner is satisfied by both the SQL and the in-memory transaction runners.
type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// changeSink receives collection change signals from the services.
type changeSink interface {
	Changed(ctx context.Context, collection string)
}

// The catalog and loan services share the same stores through different views.
type (
	bookStore interface {
		catalogservice.BookStore
		loanservice.BookStore
	}
	memberStore interface {
		catalogservice.MemberStore
		loanservice.MemberStore
	}
	loanStore interface {
		loanservice.LoanStore
		catalogservice.LoanCounter
	}
)

// app holds every wired component of one process.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	db       *sqlx.DB
	redis    *redis.Client
	kafka    *kafkastore.Store
	events   *publisher.Publisher
	hub      *changefeed.Hub
	listener *database.Listener

	catalog  *catalogservice.Service
	loans    *loanservice.Service
	accounts *accountservice.Service
	jwt      *jwttoken.JWTService
	loanFeed *changefeed.Feed[models.LoanDetails]

	health map[string]httpapi.HealthCheck
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.Log), nil
}

// openDatabase returns nil when no driver is configured.
func openDatabase(ctx context.Context, cfg config.Database) (*sqlx.DB, error) {
	if cfg.Driver == "" {
		return nil, nil
	}
	db, err := database.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == database.DriverPostgres && cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: log,
		hub:    changefeed.NewHub(),
		health: map[string]httpapi.HealthCheck{},
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	a.redis = redisClient

	if err := a.wireEvents(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.wireServices()
	return a, nil
}

// wireEvents picks the domain event store: Kafka when brokers are configured, the
// audit_events table when a database is configured, memory otherwise.
func (a *app) wireEvents(ctx context.Context) error {
	var store audit.Store
	switch {
	case len(a.cfg.Kafka.Brokers) > 0:
		k, err := kafkastore.New(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		if err := k.EnsureTopic(ctx, a.cfg.Kafka.Partitions, a.cfg.Kafka.Replication); err != nil {
			k.Close()
			return fmt.Errorf("kafka topic: %w", err)
		}
		a.kafka = k
		a.health["kafka"] = k.Ping
		store = k
	case a.db != nil:
		store = sqlstore.New(a.db, database.DialectName(a.cfg.Database.Driver))
	default:
		store = auditmemory.NewInMemoryStore()
	}
	a.events = publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(a.cfg.Kafka.EventBuffer),
		publisher.WithLogger(a.logger),
	)
	return nil
}

func (a *app) wireServices() {
	var (
		books    bookStore
		members  memberStore
		loans    loanStore
		accounts accountservice.AccountStore
		tokens   accountservice.TokenStore
		tx       txRunner
		notifier changeSink = a.hub
	)

	if a.db != nil {
		books = bookstore.NewSQL(a.db)
		members = memberstore.NewSQL(a.db)
		loans = loanstore.NewSQL(a.db)
		accounts = accountstore.NewSQL(a.db)
		tx = database.NewTxRunner(a.db)
		a.health["database"] = a.db.PingContext
		if a.cfg.Database.Driver == database.DriverPostgres {
			notifier = database.NewPGNotifier(a.db, a.logger)
			a.listener = database.NewListener(a.cfg.Database.DSN, a.hub, a.logger)
		}
	} else {
		books = bookstore.NewInMemory()
		members = memberstore.NewInMemory()
		loans = loanstore.NewInMemory()
		accounts = accountstore.NewInMemory()
		tx = txcontext.NewMemoryRunner()
	}

	if a.redis != nil {
		tokens = tokenstore.NewRedis(a.redis.Client)
		a.health["redis"] = a.redis.Health
	} else {
		tokens = tokenstore.NewInMemory()
	}

	a.catalog = catalogservice.New(books, members, loans,
		catalogservice.WithLogger(a.logger),
		catalogservice.WithAuditPublisher(a.events),
		catalogservice.WithMetrics(catalogmetrics.New()),
		catalogservice.WithTx(tx),
		catalogservice.WithChangeNotifier(notifier),
	)

	a.loans = loanservice.New(loans, books, members,
		loanservice.WithLogger(a.logger),
		loanservice.WithAuditPublisher(a.events),
		loanservice.WithMetrics(loanmetrics.New()),
		loanservice.WithTx(tx),
		loanservice.WithChangeNotifier(notifier),
		loanservice.WithConfig(loanservice.Config{
			DefaultLoanDays:   a.cfg.Loan.DefaultDays,
			MemberRequestDays: a.cfg.Loan.MemberRequestDays,
			Fines: models.FinePolicy{
				PerLateDay: a.cfg.Loan.FinePerLateDay,
				Damage:     a.cfg.Loan.DamageFine,
			},
		}),
	)

	a.loanFeed = changefeed.New(changefeed.CollectionLoans, a.loans.ListLoans, a.logger)
	a.hub.Register(a.loanFeed)

	a.jwt = jwttoken.NewJWTService(a.cfg.Server.JWTSigningKey, "biblio", "biblio-api")
	mailer := notify.NewGateway(a.cfg.Notify.WebhookURL, a.cfg.Notify.Timeout, a.logger)

	a.accounts = accountservice.New(accounts, tokens, a.catalog,
		secrets.NewHasher(bcrypt.DefaultCost), a.jwt,
		accountservice.WithLogger(a.logger),
		accountservice.WithAuditPublisher(a.events),
		accountservice.WithMetrics(accountmetrics.New()),
		accountservice.WithTx(tx),
		accountservice.WithChangeNotifier(notifier),
		accountservice.WithMailer(mailer),
		accountservice.WithConfig(accountservice.Config{
			AccessTokenTTL:         a.cfg.Server.TokenTTL,
			RegistrationTokenTTL:   a.cfg.Account.RegistrationTokenTTL,
			PasswordChangeCooldown: a.cfg.Account.PasswordChangeCooldown,
			MinPasswordLength:      a.cfg.Account.MinPasswordLength,
			RegistrationBaseURL:    a.cfg.Account.RegistrationBaseURL,
		}),
	)
}

// close drains the event buffer before closing the backends it writes to.
func (a *app) close() {
	if a.events != nil {
		a.events.Close()
	}
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
