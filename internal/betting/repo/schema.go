package repo

import (
	"context"
	"database/sql"
)

// Bootstrap do schema do betting-service. Idempotente: roda em todo start.
const schema = `
CREATE TABLE IF NOT EXISTS wallets (
	user_id             TEXT PRIMARY KEY,
	balance_cents       BIGINT NOT NULL DEFAULT 0,
	total_wagered_cents BIGINT NOT NULL DEFAULT 0,
	total_won_cents     BIGINT NOT NULL DEFAULT 0,
	total_lost_cents    BIGINT NOT NULL DEFAULT 0,
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bets (
	id                     TEXT PRIMARY KEY,
	user_id                TEXT NOT NULL,
	event_id               TEXT NOT NULL,
	sport_key              TEXT NOT NULL,
	sport_title            TEXT,
	home_team              TEXT NOT NULL,
	away_team              TEXT NOT NULL,
	selected_team          TEXT NOT NULL,
	bet_type               TEXT NOT NULL,
	odds                   INTEGER NOT NULL,
	point                  NUMERIC,
	amount_cents           BIGINT NOT NULL,
	potential_payout_cents BIGINT NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'pending',
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	commence_time          TEXT
);
CREATE INDEX IF NOT EXISTS idx_bets_user_status ON bets(user_id, status);

CREATE TABLE IF NOT EXISTS wallet_ledger (
	id             BIGSERIAL PRIMARY KEY,
	user_id        TEXT NOT NULL,
	operation_type TEXT NOT NULL, -- DEBIT | CREDIT | REFUND
	amount_cents   BIGINT NOT NULL,
	related_bet_id TEXT,
	description    TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS saved_lines (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	sport      TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
