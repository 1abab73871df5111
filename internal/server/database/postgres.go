package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are applied in order and recorded in schema_migrations.
var migrations = []struct {
	Version string
	SQL     string
}{
	{
		Version: "000001_create_compression_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS compression_jobs (
				id              VARCHAR(36)  PRIMARY KEY,
				resolution      VARCHAR(16)  NOT NULL,
				quality         VARCHAR(16)  NOT NULL,
				original_size   BIGINT       NOT NULL,
				compressed_size BIGINT       NOT NULL DEFAULT 0,
				duration_ms     BIGINT       NOT NULL DEFAULT 0,
				outcome         VARCHAR(32)  NOT NULL,
				created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_compression_jobs_created_at ON compression_jobs(created_at);
		`,
	},
}

// DB holds the pool backing the optional job statistics.
type DB struct {
	Pool *pgxpool.Pool
}

// New opens a small pool against databaseURL and verifies it with a ping.
// Job records are written once per request, so a handful of connections is plenty.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 4 {
		cfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("connected to stats database", "max_conns", cfg.MaxConns)
	return &DB{Pool: pool}, nil
}

// RunMigrations applies pending migrations, each in its own transaction.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING",
				m.Version,
			)
			if err != nil {
				return fmt.Errorf("failed to record migration: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("failed to execute migration: %w", err)
			}
			applied++
			return nil
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.Version, err)
		}
	}

	slog.Info("database migrations complete", "applied", applied, "known", len(migrations))
	return nil
}

// HealthCheck pings the pool.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
