package store

import (
	"context"
	"database/sql"
)

// Schedule entries live in a jsonb column rather than a join table: a
// schedule is always read and replaced as one document.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subjects (
	id            UUID PRIMARY KEY,
	user_id       UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	total_class   INTEGER NOT NULL DEFAULT 0,
	total_present INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT present_within_total CHECK (total_present <= total_class)
);

CREATE INDEX IF NOT EXISTS idx_subjects_user ON subjects(user_id);

CREATE TABLE IF NOT EXISTS schedules (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	entries    JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the schema if missing. Idempotent, runs on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
