// Package config loads process configuration: built-in defaults, then an optional
// TOML file, then BIBLIO_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full process configuration.
type Config struct {
	Environment string      `toml:"environment"`
	Server      Server      `toml:"server"`
	Log         Log         `toml:"log"`
	Database    Database    `toml:"database"`
	Redis       RedisConfig `toml:"redis"`
	Kafka       Kafka       `toml:"kafka"`
	Loan        Loan        `toml:"loan"`
	Account     Account     `toml:"account"`
	Notify      Notify      `toml:"notify"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `toml:"addr"`
	JWTSigningKey  string        `toml:"jwt_signing_key"`
	TokenTTL       time.Duration `toml:"token_ttl"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "text"
}

// Database selects the entity store backend. An empty driver keeps everything in memory.
type Database struct {
	Driver       string `toml:"driver"` // "", "postgres" or "sqlite"
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	AutoMigrate  bool   `toml:"auto_migrate"`
}

// RedisConfig configures the registration token store. Empty URL keeps tokens in memory.
type RedisConfig struct {
	URL          string        `toml:"url"`
	PoolSize     int           `toml:"pool_size"`
	MinIdleConns int           `toml:"min_idle_conns"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Kafka configures the domain event stream. No brokers keeps events in memory.
type Kafka struct {
	Brokers     []string `toml:"brokers"`
	Topic       string   `toml:"topic"`
	Partitions  int32    `toml:"partitions"`
	Replication int16    `toml:"replication"`
	EventBuffer int      `toml:"event_buffer"`
}

type Loan struct {
	DefaultDays       int           `toml:"default_days"`
	MemberRequestDays int           `toml:"member_request_days"`
	SweepInterval     time.Duration `toml:"sweep_interval"`
	FinePerLateDay    int64         `toml:"fine_per_late_day"`
	DamageFine        int64         `toml:"damage_fine"`
}

type Account struct {
	RegistrationTokenTTL   time.Duration `toml:"registration_token_ttl"`
	PasswordChangeCooldown time.Duration `toml:"password_change_cooldown"`
	MinPasswordLength      int           `toml:"min_password_length"`
	RegistrationBaseURL    string        `toml:"registration_base_url"`
}

// Notify configures the outbound email webhook. Empty URL logs instead of sending.
type Notify struct {
	WebhookURL string        `toml:"webhook_url"`
	Timeout    time.Duration `toml:"timeout"`
}

// Default returns a configuration suitable for local development.
func Default() Config {
	return Config{
		Environment: "development",
		Server: Server{
			Addr:           ":8080",
			JWTSigningKey:  "dev-secret-key-change-in-production",
			TokenTTL:       12 * time.Hour,
			RequestTimeout: 30 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
		Database: Database{
			MaxOpenConns: 10,
			AutoMigrate:  true,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Topic:       "biblio.events",
			Partitions:  3,
			Replication: 1,
			EventBuffer: 256,
		},
		Loan: Loan{
			DefaultDays:       7,
			MemberRequestDays: 7,
			SweepInterval:     time.Hour,
			FinePerLateDay:    10,
			DamageFine:        100,
		},
		Account: Account{
			RegistrationTokenTTL:   24 * time.Hour,
			PasswordChangeCooldown: 5 * time.Minute,
			MinPasswordLength:      6,
			RegistrationBaseURL:    "http://localhost:3000/completar-registro",
		},
		Notify: Notify{Timeout: 10 * time.Second},
	}
}

// Load builds the configuration. path may be empty to skip the file layer.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate rejects configurations the process cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q: must be postgres, sqlite or empty", c.Database.Driver))
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required when a driver is set"))
	}
	if c.Loan.DefaultDays < 1 {
		errs = append(errs, errors.New("loan.default_days must be at least 1"))
	}
	if c.Loan.MemberRequestDays < 1 {
		errs = append(errs, errors.New("loan.member_request_days must be at least 1"))
	}
	if c.Loan.SweepInterval <= 0 {
		errs = append(errs, errors.New("loan.sweep_interval must be positive"))
	}
	if c.Loan.FinePerLateDay < 0 || c.Loan.DamageFine < 0 {
		errs = append(errs, errors.New("loan fines must not be negative"))
	}
	if c.Server.JWTSigningKey == "" {
		errs = append(errs, errors.New("server.jwt_signing_key is required"))
	}
	if c.IsProduction() && c.Server.JWTSigningKey == Default().Server.JWTSigningKey {
		errs = append(errs, errors.New("server.jwt_signing_key must be overridden in production"))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) error {
	setString("BIBLIO_ENV", &cfg.Environment)
	setString("BIBLIO_ADDR", &cfg.Server.Addr)
	setString("BIBLIO_JWT_SIGNING_KEY", &cfg.Server.JWTSigningKey)
	setString("BIBLIO_LOG_LEVEL", &cfg.Log.Level)
	setString("BIBLIO_LOG_FORMAT", &cfg.Log.Format)
	setString("BIBLIO_DB_DRIVER", &cfg.Database.Driver)
	setString("BIBLIO_DB_DSN", &cfg.Database.DSN)
	setString("BIBLIO_REDIS_URL", &cfg.Redis.URL)
	setString("BIBLIO_KAFKA_TOPIC", &cfg.Kafka.Topic)
	setString("BIBLIO_WEBHOOK_URL", &cfg.Notify.WebhookURL)
	setString("BIBLIO_REGISTRATION_BASE_URL", &cfg.Account.RegistrationBaseURL)
	if v := os.Getenv("BIBLIO_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	var errs []error
	errs = append(errs, setDuration("BIBLIO_SWEEP_INTERVAL", &cfg.Loan.SweepInterval))
	errs = append(errs, setDuration("BIBLIO_TOKEN_TTL", &cfg.Server.TokenTTL))
	errs = append(errs, setInt("BIBLIO_LOAN_DAYS", &cfg.Loan.DefaultDays))
	errs = append(errs, setInt("BIBLIO_MEMBER_REQUEST_DAYS", &cfg.Loan.MemberRequestDays))
	return errors.Join(errs...)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
