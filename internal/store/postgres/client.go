// Package postgres implements the columnar analytical store collaborator
// (spec §6, Collaborator A) on top of pgx, in the idiom of
// leanlp-BTC-coinjoin's internal/db package: a thin pgxpool wrapper with
// hand-written SQL rather than a generated ORM client (see DESIGN.md for
// why entgo.io/ent's generated layer is not used here). Connection
// pooling and embedded-migration bootstrap follow the teacher's
// pkg/database/client.go.
package postgres

import (
	"context"
	stdsql "database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql, used only by the migration runner

	"github.com/sevakavakians/kato/internal/katoerr"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds Postgres connection parameters (spec SPEC_FULL.md ambient
// config section).
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxConnLifetime time.Duration
}

// Store is the columnar store collaborator.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore opens a pooled connection and applies pending migrations,
// mirroring tarsy's database.NewClient.
func NewStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d pool_max_conn_lifetime=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
		cfg.MaxOpenConns, cfg.MaxConnLifetime,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %v", katoerr.ErrStorageUnavailable, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: open pool: %v", katoerr.ErrStorageUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", katoerr.ErrStorageUnavailable, err)
	}

	if err := runMigrations(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("postgres store connected", "host", cfg.Host, "database", cfg.Database)
	return &Store{pool: pool, logger: logger}, nil
}

// NewFromPool wraps an already-open pool. Unlike NewStore it does not
// ping the database or run migrations.
func NewFromPool(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// runMigrations applies embedded migrations via golang-migrate, following
// tarsy's runMigrations control flow but against a plain database/sql
// handle (migrate's own driver requirement) instead of an ent driver.
func runMigrations(dsn string) error {
	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration handle: %w", err)
	}
	defer func() { _ = db.Close() }()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "patterns", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return sourceDriver.Close()
}
