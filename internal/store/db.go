// Package store is the SQLite persistence layer. It provides a dual
// reader/writer connection pair with WAL mode enabled; the writer is limited
// to one connection so batch inserts and sequence reservations serialize
// without "database is locked" errors.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB provides dual reader/writer database connections with WAL mode enabled
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

const schema = `
CREATE TABLE IF NOT EXISTS account_sequences (
	account_id TEXT PRIMARY KEY,
	next_seq   INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS vouchers (
	id               TEXT PRIMARY KEY,
	account_id       TEXT NOT NULL,
	batch_name       TEXT NOT NULL DEFAULT '',
	kind             TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	data_limit_mb    INTEGER NOT NULL DEFAULT 0,
	price            REAL NOT NULL DEFAULT 0,
	description      TEXT NOT NULL DEFAULT '',
	username         TEXT NOT NULL,
	password         TEXT NOT NULL,
	status           TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL,
	activated_at     TIMESTAMP,
	data_used_mb     INTEGER NOT NULL DEFAULT 0,
	UNIQUE (account_id, username)
);
CREATE INDEX IF NOT EXISTS idx_vouchers_account ON vouchers (account_id);
CREATE INDEX IF NOT EXISTS idx_vouchers_status ON vouchers (status);

CREATE TABLE IF NOT EXISTS config_templates (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	device_model  TEXT NOT NULL,
	template_type TEXT NOT NULL,
	body          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rendered_configs (
	id                 TEXT PRIMARY KEY,
	source_template_id TEXT NOT NULL,
	device_model       TEXT NOT NULL,
	profile_name       TEXT NOT NULL,
	params             TEXT NOT NULL,
	body               TEXT NOT NULL,
	warnings           TEXT NOT NULL DEFAULT '[]',
	generated_at       TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
	account_id TEXT PRIMARY KEY,
	plan       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	expires_at TIMESTAMP,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS payment_events (
	reference  TEXT NOT NULL,
	account_id TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL,
	PRIMARY KEY (reference, outcome)
);
`

// Open creates the dual-connection SQLite database, applies pragmas and
// bootstraps the schema.
func Open(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := writer.Ping(); err != nil {
		writer.Close()
		return nil, fmt.Errorf("ping writer: %w", err)
	}

	if _, err := writer.Exec(schema); err != nil {
		writer.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	if err := reader.Ping(); err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("ping reader: %w", err)
	}

	return &DB{
		Writer: writer,
		Reader: reader,
		path:   dbPath,
	}, nil
}

// Close closes both reader and writer connections
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
