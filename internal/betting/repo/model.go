package repo

import (
	"errors"
	"time"
)

// Status possíveis de uma aposta. pending é o único estado não terminal;
// as transições válidas são pending -> won | lost | cancelled.
const (
	StatusPending   = "pending"
	StatusWon       = "won"
	StatusLost      = "lost"
	StatusCancelled = "cancelled"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("bet is not pending")
	ErrNotFound          = errors.New("not found")
)

// Bet representa uma aposta de papel contra a carteira do usuário.
// PotentialPayoutCents é calculado na criação e nunca recalculado depois.
type Bet struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	EventID              string    `json:"event_id"`
	SportKey             string    `json:"sport_key"`
	SportTitle           string    `json:"sport_title,omitempty"`
	HomeTeam             string    `json:"home_team"`
	AwayTeam             string    `json:"away_team"`
	SelectedTeam         string    `json:"selected_team"`
	BetType              string    `json:"bet_type"` // h2h | spreads | totals
	Odds                 int       `json:"odds"`     // formato americano
	Point                *float64  `json:"point,omitempty"`
	AmountCents          int64     `json:"amount_cents"`
	PotentialPayoutCents int64     `json:"potential_payout_cents"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	CommenceTime         string    `json:"commence_time,omitempty"`
}

// Wallet acumula o saldo e os totais históricos de um usuário.
// TotalWagered soma toda stake colocada (e devolve em cancelamento);
// TotalWon soma payouts de vitórias; TotalLost soma stakes perdidas.
type Wallet struct {
	UserID            string    `json:"user_id"`
	BalanceCents      int64     `json:"balance_cents"`
	TotalWageredCents int64     `json:"total_wagered_cents"`
	TotalWonCents     int64     `json:"total_won_cents"`
	TotalLostCents    int64     `json:"total_lost_cents"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Stats é a projeção derivada do conjunto de apostas do usuário,
// recalculada a cada consulta.
type Stats struct {
	TotalBets      int     `json:"total_bets"`
	PendingBets    int     `json:"pending_bets"`
	WonBets        int     `json:"won_bets"`
	LostBets       int     `json:"lost_bets"`
	WinRate        float64 `json:"win_rate"`
	NetProfitCents int64   `json:"net_profit_cents"`
	ROI            float64 `json:"roi"`
}

// SavedLine é um snapshot de linhas salvo pelo usuário.
type SavedLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Sport     string    `json:"sport"`
	Name      string    `json:"name"`
	Data      []byte    `json:"data"` // JSON bruto das linhas no momento do snapshot
	CreatedAt time.Time `json:"created_at"`
}

// computeStats deriva as estatísticas a partir da carteira e dos contadores
// por status. Denominadores zerados resultam em 0, nunca em NaN.
func computeStats(w Wallet, total, pending, won, lost int) Stats {
	s := Stats{
		TotalBets:      total,
		PendingBets:    pending,
		WonBets:        won,
		LostBets:       lost,
		NetProfitCents: w.TotalWonCents - w.TotalLostCents,
	}
	if settled := won + lost; settled > 0 {
		s.WinRate = float64(won) / float64(settled) * 100
	}
	if w.TotalWageredCents > 0 {
		s.ROI = float64(s.NetProfitCents) / float64(w.TotalWageredCents) * 100
	}
	return s
}
