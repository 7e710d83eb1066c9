package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds the ordered schema steps. Each entry is applied at most
// once; applied versions are recorded in schema_migrations.
var migrations = []struct {
	version int
	name    string
	stmts   []string
}{
	{
		version: 1,
		name:    "create_users",
		stmts: []string{`
			CREATE TABLE users (
				id            TEXT PRIMARY KEY,
				role          TEXT NOT NULL CHECK (role IN ('admin', 'user')),
				username      TEXT NOT NULL UNIQUE,
				email         TEXT UNIQUE,
				display_name  TEXT,
				password_hash TEXT NOT NULL,
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "create_tokens",
		stmts: []string{`
			CREATE TABLE tokens (
				id        TEXT PRIMARY KEY,
				user_id   TEXT NOT NULL REFERENCES users(id),
				token     TEXT NOT NULL UNIQUE,
				issued_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_tokens_user_id ON tokens(user_id)`,
		},
	},
	{
		version: 3,
		name:    "create_speakers",
		stmts: []string{`
			CREATE TABLE speakers (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id),
				name       TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE (user_id, name)
			)`,
		},
	},
}

// Migrate brings the schema up to date, applying pending steps in order
// inside a single transaction per step.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.DB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			if _, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				m.version, m.name,
			); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func migrationApplied(ctx context.Context, pool *ConnectionPool, version int) (bool, error) {
	var count int
	err := pool.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return count > 0, nil
}
