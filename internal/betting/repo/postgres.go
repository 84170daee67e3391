package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Saldo inicial creditado na criação da carteira (modo paper wagering).
const initialBalanceCents = 100_000 // $1000.00

// Postgres implementa o store do betting-service sobre Postgres.
// Toda mutação de carteira roda em uma transação única com lock pessimista
// (FOR UPDATE) nas linhas de carteira e aposta, pra evitar lost updates em
// requisições concorrentes do mesmo usuário.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// lockWallet retorna a carteira do usuário dentro da transação, criando-a
// com o saldo inicial se ainda não existir. A linha fica bloqueada até o commit.
// Criação via ON CONFLICT DO NOTHING: duas primeiras apostas concorrentes
// disputam o INSERT e a perdedora relê a linha já criada.
func lockWallet(ctx context.Context, tx *sql.Tx, userID string) (Wallet, error) {
	const sel = `
		SELECT user_id, balance_cents, total_wagered_cents, total_won_cents, total_lost_cents, updated_at
		FROM wallets WHERE user_id=$1 FOR UPDATE`

	var w Wallet
	err := tx.QueryRowContext(ctx, sel, userID).
		Scan(&w.UserID, &w.BalanceCents, &w.TotalWageredCents, &w.TotalWonCents, &w.TotalLostCents, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallets(user_id, balance_cents) VALUES($1,$2)
			ON CONFLICT (user_id) DO NOTHING`,
			userID, initialBalanceCents); err != nil {
			return Wallet{}, err
		}
		err = tx.QueryRowContext(ctx, sel, userID).
			Scan(&w.UserID, &w.BalanceCents, &w.TotalWageredCents, &w.TotalWonCents, &w.TotalLostCents, &w.UpdatedAt)
	}
	return w, err
}

// saveWallet persiste os contadores da carteira já bloqueada.
func saveWallet(ctx context.Context, tx *sql.Tx, w Wallet) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance_cents=$1, total_wagered_cents=$2, total_won_cents=$3, total_lost_cents=$4, updated_at=now()
		WHERE user_id=$5`,
		w.BalanceCents, w.TotalWageredCents, w.TotalWonCents, w.TotalLostCents, w.UserID)
	return err
}

// ledgerInsert registra a operação na trilha de auditoria da carteira.
func ledgerInsert(ctx context.Context, tx *sql.Tx, userID, op string, amount int64, betID, desc string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_ledger(user_id, operation_type, amount_cents, related_bet_id, description)
		VALUES($1,$2,$3,$4,$5)`, userID, op, amount, betID, desc)
	return err
}

// GetWallet retorna (ou cria) a carteira do usuário.
func (p *Postgres) GetWallet(ctx context.Context, userID string) (Wallet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Wallet{}, err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return Wallet{}, err
	}
	return w, tx.Commit()
}

// PlaceBet debita a stake da carteira e cria a aposta pending, atomicamente.
// A pré-condição de saldo é reavaliada dentro da transação.
func (p *Postgres) PlaceBet(ctx context.Context, b Bet) (Bet, Wallet, error) {
	if b.AmountCents <= 0 {
		return Bet{}, Wallet{}, ErrInvalidAmount
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, Wallet{}, err
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, b.UserID)
	if err != nil {
		return Bet{}, Wallet{}, err
	}
	if b.AmountCents > w.BalanceCents {
		return Bet{}, Wallet{}, ErrInsufficientFunds
	}

	b.ID = uuid.NewString()
	b.Status = StatusPending
	b.CreatedAt = time.Now().UTC()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id,user_id,event_id,sport_key,sport_title,home_team,away_team,
			selected_team,bet_type,odds,point,amount_cents,potential_payout_cents,status,created_at,commence_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		b.ID, b.UserID, b.EventID, b.SportKey, b.SportTitle, b.HomeTeam, b.AwayTeam,
		b.SelectedTeam, b.BetType, b.Odds, b.Point, b.AmountCents, b.PotentialPayoutCents,
		b.Status, b.CreatedAt, b.CommenceTime); err != nil {
		return Bet{}, Wallet{}, err
	}

	w.BalanceCents -= b.AmountCents
	w.TotalWageredCents += b.AmountCents
	if err = saveWallet(ctx, tx, w); err != nil {
		return Bet{}, Wallet{}, err
	}
	if err = ledgerInsert(ctx, tx, b.UserID, "DEBIT", b.AmountCents, b.ID, "bet placed"); err != nil {
		return Bet{}, Wallet{}, err
	}

	return b, w, tx.Commit()
}

// lockBet carrega a aposta do usuário com FOR UPDATE.
func lockBet(ctx context.Context, tx *sql.Tx, userID, betID string) (Bet, error) {
	var b Bet
	err := tx.QueryRowContext(ctx, `
		SELECT id,user_id,event_id,sport_key,COALESCE(sport_title,''),home_team,away_team,
			selected_team,bet_type,odds,point,amount_cents,potential_payout_cents,status,created_at,COALESCE(commence_time,'')
		FROM bets WHERE id=$1 AND user_id=$2 FOR UPDATE`, betID, userID).
		Scan(&b.ID, &b.UserID, &b.EventID, &b.SportKey, &b.SportTitle, &b.HomeTeam, &b.AwayTeam,
			&b.SelectedTeam, &b.BetType, &b.Odds, &b.Point, &b.AmountCents, &b.PotentialPayoutCents,
			&b.Status, &b.CreatedAt, &b.CommenceTime)
	if err == sql.ErrNoRows {
		return Bet{}, ErrNotFound
	}
	return b, err
}

// SettleBet transiciona pending -> won|lost e aplica o efeito na carteira.
// won credita o potential_payout; lost só acumula total_lost (a stake já
// foi debitada na colocação).
func (p *Postgres) SettleBet(ctx context.Context, userID, betID, result string) (Bet, Wallet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, Wallet{}, err
	}
	defer tx.Rollback()

	b, err := lockBet(ctx, tx, userID, betID)
	if err != nil {
		return Bet{}, Wallet{}, err
	}
	if b.Status != StatusPending {
		return Bet{}, Wallet{}, ErrInvalidState
	}

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return Bet{}, Wallet{}, err
	}

	switch result {
	case StatusWon:
		w.BalanceCents += b.PotentialPayoutCents
		w.TotalWonCents += b.PotentialPayoutCents
		if err = ledgerInsert(ctx, tx, userID, "CREDIT", b.PotentialPayoutCents, b.ID, "bet won"); err != nil {
			return Bet{}, Wallet{}, err
		}
	case StatusLost:
		w.TotalLostCents += b.AmountCents
	default:
		return Bet{}, Wallet{}, ErrInvalidState
	}
	b.Status = result

	if _, err = tx.ExecContext(ctx, `UPDATE bets SET status=$1 WHERE id=$2`, result, b.ID); err != nil {
		return Bet{}, Wallet{}, err
	}
	if err = saveWallet(ctx, tx, w); err != nil {
		return Bet{}, Wallet{}, err
	}

	return b, w, tx.Commit()
}

// CancelBet transiciona pending -> cancelled e devolve a stake, revertendo
// também o acúmulo de total_wagered feito na colocação. A linha da aposta é
// mantida como histórico.
func (p *Postgres) CancelBet(ctx context.Context, userID, betID string) (Bet, Wallet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, Wallet{}, err
	}
	defer tx.Rollback()

	b, err := lockBet(ctx, tx, userID, betID)
	if err != nil {
		return Bet{}, Wallet{}, err
	}
	if b.Status != StatusPending {
		return Bet{}, Wallet{}, ErrInvalidState
	}

	w, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return Bet{}, Wallet{}, err
	}

	w.BalanceCents += b.AmountCents
	w.TotalWageredCents -= b.AmountCents
	b.Status = StatusCancelled

	if _, err = tx.ExecContext(ctx, `UPDATE bets SET status=$1 WHERE id=$2`, b.Status, b.ID); err != nil {
		return Bet{}, Wallet{}, err
	}
	if err = saveWallet(ctx, tx, w); err != nil {
		return Bet{}, Wallet{}, err
	}
	if err = ledgerInsert(ctx, tx, userID, "REFUND", b.AmountCents, b.ID, "bet cancelled"); err != nil {
		return Bet{}, Wallet{}, err
	}

	return b, w, tx.Commit()
}

// ListBets retorna as apostas do usuário filtradas por status
// (lista vazia de filtros = todas), mais recentes primeiro.
func (p *Postgres) ListBets(ctx context.Context, userID string, statuses ...string) ([]Bet, error) {
	q := `
		SELECT id,user_id,event_id,sport_key,COALESCE(sport_title,''),home_team,away_team,
			selected_team,bet_type,odds,point,amount_cents,potential_payout_cents,status,created_at,COALESCE(commence_time,'')
		FROM bets WHERE user_id=$1`
	args := []any{userID}
	if len(statuses) > 0 {
		q += ` AND status = ANY($2)`
		args = append(args, pq.Array(statuses))
	}
	q += ` ORDER BY created_at DESC LIMIT 100`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.SportKey, &b.SportTitle, &b.HomeTeam,
			&b.AwayTeam, &b.SelectedTeam, &b.BetType, &b.Odds, &b.Point, &b.AmountCents,
			&b.PotentialPayoutCents, &b.Status, &b.CreatedAt, &b.CommenceTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Stats recalcula a projeção de estatísticas do usuário via agregação.
func (p *Postgres) Stats(ctx context.Context, userID string) (Stats, Wallet, error) {
	w, err := p.GetWallet(ctx, userID)
	if err != nil {
		return Stats{}, Wallet{}, err
	}

	var total, pending, won, lost int
	err = p.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status='pending'),
			COUNT(*) FILTER (WHERE status='won'),
			COUNT(*) FILTER (WHERE status='lost')
		FROM bets WHERE user_id=$1`, userID).Scan(&total, &pending, &won, &lost)
	if err != nil {
		return Stats{}, Wallet{}, err
	}

	return computeStats(w, total, pending, won, lost), w, nil
}

// SaveLine persiste um snapshot de linhas do usuário.
func (p *Postgres) SaveLine(ctx context.Context, s SavedLine) (SavedLine, error) {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().UTC()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO saved_lines(id, user_id, sport, name, data, created_at)
		VALUES($1,$2,$3,$4,$5,$6)`,
		s.ID, s.UserID, s.Sport, s.Name, s.Data, s.CreatedAt)
	return s, err
}

// ListSavedLines lista os snapshots do usuário, mais recentes primeiro.
func (p *Postgres) ListSavedLines(ctx context.Context, userID string) ([]SavedLine, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, sport, name, data, created_at
		FROM saved_lines WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedLine
	for rows.Next() {
		var s SavedLine
		if err := rows.Scan(&s.ID, &s.UserID, &s.Sport, &s.Name, &s.Data, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSavedLine remove um snapshot do próprio usuário.
func (p *Postgres) DeleteSavedLine(ctx context.Context, userID, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM saved_lines WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
