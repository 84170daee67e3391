package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Postgres implementa o store do picks-service sobre Postgres.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const userCols = "id, email, password_hash, role, subscription_status, COALESCE(billing_customer_id,''), created_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.SubscriptionStatus, &u.BillingCustomerID, &u.CreatedAt)
	return u, err
}

// CreateUser registra um novo membro. E-mail duplicado vira ErrDuplicateEmail.
func (p *Postgres) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING `+userCols, email, passwordHash)
	u, err := scanUser(row)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return User{}, ErrDuplicateEmail
	}
	return u, err
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

func (p *Postgres) GetUserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser aplica um patch parcial de role e/ou subscription_status.
func (p *Postgres) UpdateUser(ctx context.Context, id int64, role, subscriptionStatus *string) (User, error) {
	var sets []string
	var args []any
	idx := 1

	if role != nil {
		sets = append(sets, fmt.Sprintf("role=$%d", idx))
		args = append(args, *role)
		idx++
	}
	if subscriptionStatus != nil {
		sets = append(sets, fmt.Sprintf("subscription_status=$%d", idx))
		args = append(args, *subscriptionStatus)
		idx++
	}
	if len(sets) == 0 {
		return User{}, ErrNoFields
	}

	args = append(args, id)
	q := fmt.Sprintf("UPDATE users SET %s WHERE id=$%d RETURNING %s", strings.Join(sets, ", "), idx, userCols)
	u, err := scanUser(p.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

func (p *Postgres) DeleteUser(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSubscription atualiza o status de assinatura pelo e-mail do cliente,
// gravando o id do cliente no provedor de billing quando informado.
func (p *Postgres) SetSubscription(ctx context.Context, email, status, customerID string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE users
		SET subscription_status=$1,
		    billing_customer_id=COALESCE(NULLIF($2,''), billing_customer_id)
		WHERE email=$3`, status, customerID, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubscriberEmails retorna os destinatários do broadcast de picks.
func (p *Postgres) ListSubscriberEmails(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT email FROM users WHERE subscription_status='active'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const pickCols = "id, sport, COALESCE(time,''), matchup, pick, COALESCE(odds,''), COALESCE(units,''), COALESCE(bet_type,''), COALESCE(analysis,''), COALESCE(result,''), created_at"

func scanPick(row interface{ Scan(...any) error }) (Pick, error) {
	var pk Pick
	err := row.Scan(&pk.ID, &pk.Sport, &pk.Time, &pk.Matchup, &pk.Pick, &pk.Odds, &pk.Units, &pk.BetType, &pk.Analysis, &pk.Result, &pk.CreatedAt)
	return pk, err
}

func (p *Postgres) CreatePick(ctx context.Context, pk Pick) (Pick, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO picks (sport, time, matchup, pick, odds, units, bet_type, analysis)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+pickCols,
		pk.Sport, pk.Time, pk.Matchup, pk.Pick, pk.Odds, pk.Units, pk.BetType, pk.Analysis)
	return scanPick(row)
}

// UpdatePick substitui todos os campos editáveis, incluindo a graduação.
func (p *Postgres) UpdatePick(ctx context.Context, pk Pick) (Pick, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE picks
		SET sport=$1, time=$2, matchup=$3, pick=$4, odds=$5, units=$6, bet_type=$7, analysis=$8, result=NULLIF($9,'')
		WHERE id=$10
		RETURNING `+pickCols,
		pk.Sport, pk.Time, pk.Matchup, pk.Pick, pk.Odds, pk.Units, pk.BetType, pk.Analysis, pk.Result, pk.ID)
	out, err := scanPick(row)
	if err == sql.ErrNoRows {
		return Pick{}, ErrNotFound
	}
	return out, err
}

func (p *Postgres) DeletePick(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM picks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListPicks(ctx context.Context) ([]Pick, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+pickCols+` FROM picks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pick
	for rows.Next() {
		pk, err := scanPick(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pk)
	}
	return out, rows.Err()
}
