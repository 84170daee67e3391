package repo

import (
	"context"
	"database/sql"
)

// Bootstrap do schema do picks-service. Idempotente: roda em todo start.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                  BIGSERIAL PRIMARY KEY,
	email               TEXT UNIQUE NOT NULL,
	password_hash       TEXT NOT NULL,
	role                TEXT NOT NULL DEFAULT 'member',
	subscription_status TEXT NOT NULL DEFAULT 'inactive',
	billing_customer_id TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS picks (
	id         BIGSERIAL PRIMARY KEY,
	sport      TEXT NOT NULL,
	time       TEXT,
	matchup    TEXT NOT NULL,
	pick       TEXT NOT NULL,
	odds       TEXT,
	units      TEXT,
	bet_type   TEXT,
	analysis   TEXT,
	result     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SeedAdmin garante a conta de administrador no bootstrap (upsert).
// passwordHash já vem com bcrypt aplicado; sem senha configurada, não semeia.
func SeedAdmin(ctx context.Context, db *sql.DB, email, passwordHash string) error {
	if email == "" || passwordHash == "" {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role, subscription_status)
		VALUES ($1, $2, 'admin', 'active')
		ON CONFLICT (email)
		DO UPDATE SET password_hash = $2, role = 'admin', subscription_status = 'active'`,
		email, passwordHash)
	return err
}
