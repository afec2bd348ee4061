// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
}

// DSN renders the connection string understood by lib/pq.
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + p.Port,
		Path:     "/" + p.DB,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured. Without it the
// aggregate cache and background queue are off.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

type Config struct {
	HTTPAddr        string
	Postgres        Postgres
	Redis           Redis
	JWTSecret       string
	QueueName       string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	LedgerMaxAttempts       int
	ReferralBonus           decimal.Decimal
	AggregateCacheTTL       time.Duration
	SubmitRatePerMin        int
	SubmitRateBurst         int
	ExportWorkerConcurrency int
	WarmConcurrency         int
}

// Load reads .env when present, then the environment. A missing .env file
// is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	r := &reader{}
	cfg := &Config{
		HTTPAddr: r.str("HTTP_ADDR", "0.0.0.0:8080"),
		Postgres: Postgres{
			Host:     r.str("POSTGRES_HOST", "localhost"),
			Port:     r.str("POSTGRES_PORT", "5432"),
			User:     r.str("POSTGRES_USER", "postgres"),
			Password: r.str("POSTGRES_PASSWORD", ""),
			DB:       r.str("POSTGRES_DB", "surveys"),
			SSLMode:  r.str("POSTGRES_SSLMODE", "disable"),
		},
		Redis: Redis{
			Addr:     r.str("REDIS_ADDR", ""),
			Password: r.str("REDIS_PASSWORD", ""),
			DB:       r.int("REDIS_DB", 0),
		},
		JWTSecret:       r.str("JWT_SECRET", ""),
		QueueName:       r.str("QUEUE_NAME", "default"),
		LogLevel:        r.str("LOG_LEVEL", "info"),
		LogFormat:       r.str("LOG_FORMAT", "json"),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LedgerMaxAttempts:       r.int("LEDGER_MAX_ATTEMPTS", 3),
		ReferralBonus:           r.decimal("REFERRAL_BONUS", decimal.NewFromInt(100)),
		AggregateCacheTTL:       r.duration("AGGREGATE_CACHE_TTL", 30*time.Second),
		SubmitRatePerMin:        r.int("SUBMIT_RATE_PER_MIN", 30),
		SubmitRateBurst:         r.int("SUBMIT_RATE_BURST", 10),
		ExportWorkerConcurrency: r.int("EXPORT_WORKER_CONCURRENCY", 4),
		WarmConcurrency:         r.int("WARM_CONCURRENCY", 8),
	}
	if r.err != nil {
		return nil, r.err
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.LedgerMaxAttempts < 1 {
		return nil, fmt.Errorf("LEDGER_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.ReferralBonus.IsNegative() {
		return nil, fmt.Errorf("REFERRAL_BONUS must not be negative")
	}
	return cfg, nil
}

// reader keeps the first parse failure so Load can report it once.
type reader struct {
	err error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) decimal(key string, def decimal.Decimal) decimal.Decimal {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
