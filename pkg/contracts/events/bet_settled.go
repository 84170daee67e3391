package events

import "time"

// Evento emitido pelo betting-service após liquidação de uma aposta.
type BetSettled struct {
	BetID        string    `json:"bet_id"`
	UserID       string    `json:"user_id"`
	Result       string    `json:"result"` // "won" | "lost"
	AmountCents  int64     `json:"amount_cents"`
	PayoutCents  int64     `json:"payout_cents,omitempty"` // só em won
	BalanceCents int64     `json:"balance_cents"`
	Ts           time.Time `json:"ts"`
}
