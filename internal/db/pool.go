package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturaIA/ocr-chat-service/internal/logging"
)

// Pool is the global database connection pool
var Pool *pgxpool.Pool

// ErrNotConfigured means no database settings were found in the environment
var ErrNotConfigured = errors.New("no database configuration")

// ErrNoPool is returned by queries issued before Init succeeded
var ErrNoPool = errors.New("database not initialized")

const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id          UUID PRIMARY KEY,
	seq         BIGSERIAL,
	session_id  TEXT        NOT NULL,
	role        TEXT        NOT NULL,
	content     TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE chat_messages ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
DROP INDEX IF EXISTS chat_messages_session_idx;
CREATE INDEX IF NOT EXISTS chat_messages_session_seq_idx ON chat_messages (session_id, seq);

CREATE TABLE IF NOT EXISTS ocr_extractions (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	session_id   TEXT        NOT NULL,
	engine       TEXT        NOT NULL,
	strategy     TEXT        NOT NULL,
	dialect      TEXT        NOT NULL DEFAULT '',
	lines        TEXT[]      NOT NULL DEFAULT '{}',
	errors       TEXT[]      NOT NULL DEFAULT '{}',
	image_path   TEXT        NOT NULL DEFAULT '',
	duration_ms  BIGINT      NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE ocr_extractions ADD COLUMN IF NOT EXISTS image_path TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS ocr_extractions_session_idx ON ocr_extractions (session_id, created_at DESC);
`

// DatabaseURLFromEnv resolves DATABASE_URL or builds one from DB_* variables
func DatabaseURLFromEnv() (string, error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return databaseURL, nil
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")

	if host == "" || user == "" || dbname == "" {
		return "", ErrNotConfigured
	}
	if port == "" {
		port = "5432"
	}
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode), nil
}

// Init initializes the database connection pool and creates the tables
func Init() error {
	log := logging.For("db")

	databaseURL, err := DatabaseURLFromEnv()
	if err != nil {
		// No database configured - history stays in memory
		log.Info("No database configuration found - keeping chat history in memory")
		return err
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	Pool = pool
	log.WithField("max_conns", config.MaxConns).Info("Database connection pool initialized")
	return nil
}

// Close closes the database connection pool
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
		logging.For("db").Info("Database connection pool closed")
	}
}

// Enabled reports whether Init succeeded
func Enabled() bool {
	return Pool != nil
}
