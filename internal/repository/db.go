package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/talahq/docintake/internal/common"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Open creates a pgx pool and wraps it as *sql.DB for the repositories.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, error) {
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, nil, common.NewAppError("DB_CONFIG", "invalid database configuration", err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "docintake"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, common.NewAppError("DB_CONNECT", "failed to connect to database", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return db, pool, nil
}

// OpenSQLite opens a SQLite database, ":memory:" for the batch CLI's
// in-memory mode. The schema is created on open.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open sqlite database", "path", path, "error", err)
		return nil, err
	}
	// in-memory databases vanish when their sole connection closes
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to create sqlite schema", "error", err)
		_ = db.Close()
		return nil, err
	}
	logger.Info("sqlite database ready", "path", path)
	return db, nil
}

// EnsureSchema creates the pipeline tables when absent. Postgres deployments
// normally migrate through ent codegen + atlas; this path exists for SQLite
// and for tests.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	content_type TEXT NOT NULL,
	storage_ref TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	content_hash BLOB NOT NULL,
	category TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
CREATE TABLE IF NOT EXISTS extraction_results (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	text TEXT NOT NULL,
	text_length INTEGER NOT NULL,
	method TEXT NOT NULL,
	ocr_confidence REAL,
	pages INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	current INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extraction_results_doc ON extraction_results(document_id, current);
CREATE TABLE IF NOT EXISTS pipeline_jobs (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	status TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	last_error TEXT,
	document_type TEXT,
	confidence REAL,
	needs_review INTEGER NOT NULL DEFAULT 0,
	parse_result TEXT,
	validation_result TEXT,
	confirmed_data TEXT
);
CREATE INDEX IF NOT EXISTS idx_pipeline_jobs_doc ON pipeline_jobs(document_id, status, started_at);
`)
	return err
}

// Close closes the database connections gracefully
func Close(db *sql.DB, pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("closing database connections")
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close sql db", "error", err)
		}
	}
	if pool != nil {
		pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", common.ErrDatabase, err)
	}
	logger.Debug("database ping successful")
	return nil
}
