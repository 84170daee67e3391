package http

import "github.com/vivapicks/picks-platform/internal/betting/repo"

type PlaceBetRequest struct {
	UserID       string   `json:"user_id,omitempty"`
	EventID      string   `json:"event_id"`
	SportKey     string   `json:"sport_key"`
	SportTitle   string   `json:"sport_title,omitempty"`
	HomeTeam     string   `json:"home_team"`
	AwayTeam     string   `json:"away_team"`
	SelectedTeam string   `json:"selected_team"`
	BetType      string   `json:"bet_type"` // h2h | spreads | totals
	Odds         int      `json:"odds"`
	Point        *float64 `json:"point,omitempty"`
	AmountCents  int64    `json:"amount_cents"`
	CommenceTime string   `json:"commence_time,omitempty"`
}

type PlaceBetResponse struct {
	Bet             repo.Bet `json:"bet"`
	NewBalanceCents int64    `json:"new_balance_cents"`
	Message         string   `json:"message"`
}

type SettleBetResponse struct {
	Bet             repo.Bet `json:"bet"`
	PayoutCents     int64    `json:"payout_cents,omitempty"`
	LostAmountCents int64    `json:"lost_amount_cents,omitempty"`
	NewBalanceCents int64    `json:"new_balance_cents"`
	Message         string   `json:"message"`
}

type CancelBetResponse struct {
	RefundCents     int64  `json:"refund_cents"`
	NewBalanceCents int64  `json:"new_balance_cents"`
	Message         string `json:"message"`
}

type BetsResponse struct {
	Bets  []repo.Bet `json:"bets"`
	Count int        `json:"count"`
}

type StatsResponse struct {
	Wallet repo.Wallet `json:"wallet"`
	repo.Stats
}

type SaveLineRequest struct {
	Sport string `json:"sport"`
	Name  string `json:"name,omitempty"`
	Data  any    `json:"data"`
}
